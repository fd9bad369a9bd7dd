package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/scenegen/internal/handler"
	"github.com/makeasinger/scenegen/internal/service"
	"github.com/makeasinger/scenegen/internal/store"
	"github.com/makeasinger/scenegen/internal/storyboard"
	ws "github.com/makeasinger/scenegen/internal/websocket"
)

var testImagePool = []string{
	"https://img.example/one.jpg",
	"https://img.example/two.jpg",
	"https://img.example/three.jpg",
}

// testApp holds all components needed for testing
type testApp struct {
	app          *fiber.App
	hub          *ws.Hub
	orchestrator *service.SceneOrchestrator
}

// setupApp creates a Fiber app wired like main.go with the queue disabled:
// batch records live in memory and batches run in-process. Latency and
// pacing are shortened so tests finish quickly.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	board, err := storyboard.Default()
	if err != nil {
		t.Fatalf("failed to load storyboard: %v", err)
	}

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	images, err := service.NewPlaceholderImageService(10*time.Millisecond, testImagePool)
	if err != nil {
		t.Fatalf("failed to create image service: %v", err)
	}

	orchestrator := service.NewSceneOrchestrator(board.Scenes, images, 5*time.Millisecond, hub)
	batchService := service.NewBatchService(store.NewMemoryBatchStore(), orchestrator, nil, hub)

	imageHandler := handler.NewImageHandler(images, validate)
	sceneHandler := handler.NewSceneHandler(orchestrator, batchService)
	batchHandler := handler.NewBatchHandler(batchService)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"queue":        false,
				"redis":        false,
				"remoteImages": false,
			},
		})
	})

	api := app.Group("/api")
	api.Post("/generate-image", imageHandler.Generate)

	scenes := api.Group("/scenes")
	scenes.Get("/", sceneHandler.List)
	scenes.Post("/generate", sceneHandler.GenerateAll)
	scenes.Get("/:id", sceneHandler.Get)
	scenes.Post("/:id/generate", sceneHandler.Generate)

	api.Get("/batches/:batchId", batchHandler.Status)

	return &testApp{app: app, hub: hub, orchestrator: orchestrator}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func inPool(url string) bool {
	for _, u := range testImagePool {
		if u == url {
			return true
		}
	}
	return false
}
