package transport

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/muurk/budsctl/internal/protocol"
)

// Capture directions
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Record is one line of a capture file.
type Record struct {
	Time      time.Time `json:"time"`
	Direction string    `json:"direction"`
	Family    string    `json:"family"`
	Command   string    `json:"command"`
	Hex       string    `json:"hex"`
}

// Bytes decodes the recorded wire bytes.
func (r Record) Bytes() ([]byte, error) {
	return hex.DecodeString(r.Hex)
}

// Capture appends frames to a JSON lines file.
type Capture struct {
	mu   sync.Mutex
	w    io.WriteCloser
	enc  *json.Encoder
	path string
	now  func() time.Time
}

// CreateCapture opens a new capture-YYYYMMDD-HHMMSS.jsonl file in dir.
func CreateCapture(dir string) (*Capture, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	path := filepath.Join(dir, "capture-"+time.Now().Format("20060102-150405")+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	c := NewCapture(f)
	c.path = path
	return c, nil
}

// NewCapture writes records to w.
func NewCapture(w io.WriteCloser) *Capture {
	return &Capture{w: w, enc: json.NewEncoder(w), now: time.Now}
}

// Path returns the file path, if the capture was created by CreateCapture.
func (c *Capture) Path() string {
	return c.path
}

// Record appends one frame. The packet only labels the line; raw holds
// the exact bytes that crossed the link.
func (c *Capture) Record(direction string, id protocol.CommandID, raw []byte) error {
	rec := Record{
		Time:      c.now().UTC(),
		Direction: direction,
		Family:    id.Family.String(),
		Command:   id.String(),
		Hex:       hex.EncodeToString(raw),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	return nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Close()
}

// ReadCapture parses a capture file. Blank lines are skipped.
func ReadCapture(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}
