package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

const DefaultReadySentinel = "IPC_READY"

// Factory builds the service on init or on the first other request.
type Factory func(ctx context.Context) (Service, error)

type Options struct {
	ReadySentinel string
	MaxLineBytes  int
	Logger        *zap.Logger
}

// Server runs the line-delimited JSON request loop. Requests are handled
// one at a time in arrival order.
type Server struct {
	factory  Factory
	handlers map[Method]Handler
	opts     Options
	log      *zap.Logger

	mu  sync.Mutex
	svc Service
}

func NewServer(factory Factory, opts Options) (*Server, error) {
	if factory == nil {
		return nil, errors.New("ipc: factory is required")
	}
	handlers := defaultHandlers()
	if err := checkTable(handlers); err != nil {
		return nil, fmt.Errorf("ipc: %w", err)
	}
	if opts.ReadySentinel == "" {
		opts.ReadySentinel = DefaultReadySentinel
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = 4 << 20
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{factory: factory, handlers: handlers, opts: opts, log: log}, nil
}

// Serve writes the ready sentinel, then answers one line per request until
// r reaches end of input or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	if _, err := out.WriteString(s.opts.ReadySentinel + "\n"); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	s.log.Info("ipc server ready")

	in := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := in.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			resp := s.HandleLine(ctx, line)
			if _, err := out.Write(append(resp, '\n')); err != nil {
				return err
			}
			if err := out.Flush(); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				s.log.Info("ipc input closed")
				return nil
			}
			return readErr
		}
	}
}

// HandleLine decodes and answers one request line.
func (s *Server) HandleLine(ctx context.Context, line []byte) []byte {
	if len(line) > s.opts.MaxLineBytes {
		return encodeError(nil, apperr.Protocol("request exceeds %d bytes", s.opts.MaxLineBytes))
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn("malformed request", zap.Error(err))
		// Field type errors still leave requestId decoded.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return encodeError(req.RequestID, apperr.Protocol("invalid request: %v", err))
		}
		return encodeError(nil, apperr.Protocol("invalid JSON request: %v", err))
	}
	id := req.RequestID
	method := Method(req.Method)
	if method == "" {
		return encodeError(id, apperr.Protocol("missing method"))
	}

	s.log.Debug("ipc request", zap.String("method", req.Method), zap.Int("args", len(req.Args)))

	if method == MethodInit {
		if err := s.ensureService(ctx); err != nil {
			return encodeResult(id, map[string]any{"success": false, "message": err.Error()})
		}
		return encodeResult(id, map[string]any{"success": true, "message": "manager initialized"})
	}

	h, ok := s.handlers[method]
	if !ok {
		return encodeError(id, apperr.Protocol("unknown method: %s", req.Method))
	}
	if err := s.ensureService(ctx); err != nil {
		return encodeError(id, err)
	}

	result, err := s.call(ctx, h, Args(req.Args), req.Method)
	if err != nil {
		return encodeError(id, err)
	}
	return encodeResult(id, result)
}

func (s *Server) ensureService(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc != nil {
		return nil
	}
	s.log.Info("initializing strategy manager")
	svc, err := s.factory(ctx)
	if err != nil {
		s.log.Error("manager initialization failed", zap.Error(err))
		return fmt.Errorf("manager initialization failed: %w", err)
	}
	s.svc = svc
	return nil
}

func (s *Server) call(ctx context.Context, h Handler, args Args, method string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("ipc handler panic", zap.String("method", method), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			result, err = nil, fmt.Errorf("%s failed: %v", method, r)
		}
	}()
	s.mu.Lock()
	svc := s.svc
	s.mu.Unlock()
	return h(ctx, svc, args)
}
