package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/do"
)

var dbFilePath = filepath.Join("data", "sessions.jsonl")

// Service persists finalized sessions as JSON lines so that downstream
// export tooling can correlate them by export identifier.
type Service struct {
	mu   sync.Mutex
	path string
}

type Record struct {
	ExportID   string    `json:"export_id"`
	SessionID  string    `json:"session_id"`
	Turns      int       `json:"turns"`
	History    []string  `json:"history"`
	FinishedAt time.Time `json:"finished_at"`
}

func New(_ *do.Injector) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(dbFilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	return &Service{path: dbFilePath}, nil
}

func NewAt(path string) *Service {
	return &Service{path: path}
}

func (s *Service) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if _, err = writer.WriteString(string(data) + "\n"); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

// Load reads back all archived sessions, oldest first.
func (s *Service) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	var result []Record

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var rec Record
		if err = json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line: %w", err)
		}

		result = append(result, rec)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading archive file: %w", err)
	}

	return result, nil
}
