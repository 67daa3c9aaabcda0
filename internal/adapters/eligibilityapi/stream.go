package eligibilityapi

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"
)

const maxEventBytes = 1 << 20

// eventStream decodes server-sent events. Each event's data lines are
// joined and handed to decode; "error" events end the stream with an error.
type eventStream[T any] struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	decode  func([]byte) (T, error)
	once    sync.Once
}

func newEventStream[T any](body io.ReadCloser, decode func([]byte) (T, error)) *eventStream[T] {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
	return &eventStream[T]{body: body, scanner: scanner, decode: decode}
}

func (s *eventStream[T]) Recv() (T, error) {
	var (
		zero  T
		event string
		data  bytes.Buffer
	)
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			if data.Len() == 0 {
				event = ""
				continue
			}
			if event == "error" {
				return zero, fmt.Errorf("stream error event: %s", data.String())
			}
			return s.decode(data.Bytes())
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			event = string(value)
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(value)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return zero, fmt.Errorf("read event stream: %w", err)
	}
	return zero, io.EOF
}

func (s *eventStream[T]) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
	})
	return err
}
