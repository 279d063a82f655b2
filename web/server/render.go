package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// ThumbnailSize bounds the preview sent with the completion event
const ThumbnailSize = 160

// Renders above both limits get a console warning
const (
	slowRenderPixels  = 800 * 600
	slowRenderSamples = 100
)

// Event is a single websocket message; exactly one payload field is set, matching Type
type Event struct {
	Type     string          `json:"type"` // "start", "console", "row", "complete", "error"
	Start    *StartUpdate    `json:"start,omitempty"`
	Console  *ConsoleMessage `json:"console,omitempty"`
	Row      *RowUpdate      `json:"row,omitempty"`
	Complete *CompleteUpdate `json:"complete,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// StartUpdate announces the image size before any rows arrive
type StartUpdate struct {
	RenderID string `json:"renderId"`
	Scene    string `json:"scene"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Samples  int    `json:"samples"`
}

// RowUpdate carries one finished image row
type RowUpdate struct {
	Row       int    `json:"row"`    // 0 is the top of the image
	Pixels    []byte `json:"pixels"` // Packed RGB, base64 in JSON
	RowsDone  int    `json:"rowsDone"`
	TotalRows int    `json:"totalRows"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// CompleteUpdate carries the finished image
type CompleteUpdate struct {
	Stats        Stats  `json:"stats"`
	ImageData    string `json:"imageData"` // Base64 encoded PNG
	Thumbnail    string `json:"thumbnail"` // Base64 encoded PNG
	PublishedKey string `json:"publishedKey,omitempty"`
	ElapsedMs    int64  `json:"elapsedMs"`
}

var renderCounter atomic.Int64

// handleRender streams a render over a websocket: a start event, console
// and row events as they happen, then a complete or error event
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading websocket: %q", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A single goroutine owns writes to the connection
	events := make(chan Event, 64)
	writerDone := make(chan struct{})
	go writeEvents(conn, events, cancel, writerDone)

	// The client never sends; a read error means it went away
	go watchClose(conn, cancel)

	renderID := fmt.Sprintf("render-%d", renderCounter.Add(1))
	consoleChan := make(chan ConsoleMessage, 100)
	consoleDone := make(chan struct{})
	go forwardConsole(consoleChan, events, consoleDone)
	logger := NewWebLogger(renderID, consoleChan)

	sampling := sceneObj.SamplingConfig
	events <- Event{Type: "start", Start: &StartUpdate{
		RenderID: renderID,
		Scene:    sceneObj.Name,
		Width:    sampling.Width,
		Height:   sampling.Height,
		Samples:  sampling.SamplesPerPixel,
	}}

	if sampling.Width*sampling.Height > slowRenderPixels && sampling.SamplesPerPixel > slowRenderSamples {
		logger.Warnf("Large image with high samples may render slowly\n")
	}

	complete, renderErr := s.runRender(ctx, sceneObj, req, logger, events)
	if renderErr != nil {
		logger.Errorf("Render failed: %v\n", renderErr)
	}
	if dropped := logger.Dropped(); dropped > 0 {
		log.Printf("[%s] %d console messages dropped", renderID, dropped)
	}

	// Nothing logs after the render returns, so the console can be closed
	close(consoleChan)
	<-consoleDone

	if renderErr != nil {
		events <- Event{Type: "error", Error: renderErr.Error()}
	} else {
		events <- Event{Type: "complete", Complete: complete}
	}
	close(events)
	<-writerDone

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

// runRender renders the scene, forwarding rows as events, and encodes the result
func (s *Server) runRender(ctx context.Context, sceneObj *scene.Scene, req *RenderRequest, logger core.Logger, events chan<- Event) (*CompleteUpdate, error) {
	startTime := time.Now()

	frame, stats, err := sceneObj.Render(ctx, logger, func(rc renderer.RowCompletion) {
		pixels := make([]byte, 0, len(rc.Colors)*3)
		for _, c := range rc.Colors {
			pixels = append(pixels, c.R, c.G, c.B)
		}
		events <- Event{Type: "row", Row: &RowUpdate{
			Row:       rc.Row,
			Pixels:    pixels,
			RowsDone:  rc.RowsDone,
			TotalRows: rc.TotalRows,
			ElapsedMs: rc.Elapsed.Milliseconds(),
		}}
	})
	if err != nil {
		return nil, err
	}

	img := frame.Image()
	imageData, err := imageToBase64PNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	thumbnail, err := imageToBase64PNG(imageio.Thumbnail(img, ThumbnailSize, ThumbnailSize))
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	complete := &CompleteUpdate{
		Stats:     newStats(stats),
		ImageData: imageData,
		Thumbnail: thumbnail,
	}

	if req.Publish && s.publisher != nil {
		name := fmt.Sprintf("%s-%d-%s.png", sceneObj.Name, req.Seed, startTime.Format("20060102_150405"))
		key, err := s.publisher.PublishImage(ctx, name, img)
		if err != nil {
			return nil, err
		}
		logger.Printf("Published %s\n", key)
		complete.PublishedKey = key
	}

	complete.ElapsedMs = time.Since(startTime).Milliseconds()
	return complete, nil
}

// writeEvents writes events until the channel closes. After a write error it
// cancels the render and keeps draining so senders never block.
func writeEvents(conn *websocket.Conn, events <-chan Event, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)

	var writeErr error
	for event := range events {
		if writeErr != nil {
			continue
		}
		if writeErr = conn.WriteJSON(event); writeErr != nil {
			log.Printf("Error writing to render socket: %q", writeErr.Error())
			cancel()
		}
	}
}

// watchClose cancels the render once the client closes the connection
func watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}

// forwardConsole turns console messages into events until the console closes
func forwardConsole(consoleChan <-chan ConsoleMessage, events chan<- Event, done chan<- struct{}) {
	defer close(done)
	for msg := range consoleChan {
		msg := msg
		events <- Event{Type: "console", Console: &msg}
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
