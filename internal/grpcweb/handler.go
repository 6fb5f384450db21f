// Package grpcweb lets browsers reach the schedule service over HTTP/1.1.
package grpcweb

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"clinic-scheduling-api/internal/rpc"
)

const (
	contentTypePrefix = "application/grpc-web"
	maxFrame          = 4 << 20
	flagTrailer       = 0x80
)

// Bridge translates gRPC-Web requests into native gRPC calls. Message bytes
// are passed through untouched; the server decodes them with the codec named
// by the content subtype.
type Bridge struct {
	conn    grpc.ClientConnInterface
	closer  io.Closer
	origins map[string]bool
	logger  *zap.Logger
}

// Dial connects to the gRPC server at addr (e.g. "localhost:50051").
func Dial(addr string, origins []string, logger *zap.Logger) (*Bridge, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	b := New(conn, origins, logger)
	b.closer = conn
	return b, nil
}

func New(conn grpc.ClientConnInterface, origins []string, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Bridge{conn: conn, origins: allowed, logger: logger}
}

func (b *Bridge) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// Handler returns an http.Handler that translates gRPC-Web to gRPC.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && (b.origins["*"] || b.origins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, X-Grpc-Web, X-User-Agent, Authorization")
		w.Header().Set("Access-Control-Expose-Headers",
			"Grpc-Status, Grpc-Message, "+rpcErrorCodeHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		subtype, ok := contentSubtype(r.Header.Get("Content-Type"))
		if !ok {
			http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
			return
		}
		if !codecs[subtype] {
			http.Error(w, "unsupported message encoding "+subtype, http.StatusUnsupportedMediaType)
			return
		}

		b.logger.Debug("grpc-web call", zap.String("method", r.URL.Path))
		b.forward(w, r, subtype)
	})
}

// codecs are the content subtypes the server has codecs for.
var codecs = map[string]bool{rpc.Codec: true, "proto": true}

// rpcErrorCodeHeader mirrors the server's error code trailer.
const rpcErrorCodeHeader = "X-Error-Code"

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request, subtype string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrame+5))
	if err != nil {
		writeError(w, subtype, codes.ResourceExhausted, "request too large", nil)
		return
	}
	// grpc-web frame: 1-byte flag + 4-byte big-endian length + message
	if len(body) < 5 {
		writeError(w, subtype, codes.InvalidArgument, "body too short", nil)
		return
	}
	msgLen := binary.BigEndian.Uint32(body[1:5])
	if int(msgLen)+5 > len(body) {
		writeError(w, subtype, codes.InvalidArgument, "incomplete frame", nil)
		return
	}
	payload := body[5 : 5+msgLen]

	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	var trailer metadata.MD
	resp := &rawMsg{}
	err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp,
		grpc.ForceCodec(rawCodec{name: subtype}),
		grpc.Trailer(&trailer),
	)
	if err != nil {
		st, _ := status.FromError(err)
		if st.Code() == codes.Internal || st.Code() == codes.Unavailable {
			b.logger.Warn("grpc-web call failed",
				zap.String("method", r.URL.Path),
				zap.String("code", st.Code().String()),
				zap.String("message", st.Message()))
		}
		writeError(w, subtype, st.Code(), st.Message(), trailer)
		return
	}
	writeSuccess(w, subtype, resp.data)
}

// contentSubtype extracts "json" from "application/grpc-web+json". A bare
// "application/grpc-web" means proto.
func contentSubtype(ct string) (string, bool) {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if !strings.HasPrefix(ct, contentTypePrefix) {
		return "", false
	}
	rest := ct[len(contentTypePrefix):]
	switch {
	case rest == "":
		return "proto", true
	case rest[0] == '+':
		return rest[1:], true
	}
	return "", false
}

// rawMsg wraps encoded message bytes.
type rawMsg struct{ data []byte }

// rawCodec passes bytes through without marshal/unmarshal.
type rawCodec struct{ name string }

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}

func (c rawCodec) Name() string { return c.name }

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func writeError(w http.ResponseWriter, subtype string, code codes.Code, msg string, md metadata.MD) {
	w.Header().Set("Content-Type", contentTypePrefix+"+"+subtype)
	w.WriteHeader(http.StatusOK)
	var sb strings.Builder
	fmt.Fprintf(&sb, "grpc-status:%d\r\ngrpc-message:%s\r\n", code, msg)
	for _, v := range md.Get(strings.ToLower(rpcErrorCodeHeader)) {
		fmt.Fprintf(&sb, "%s:%s\r\n", strings.ToLower(rpcErrorCodeHeader), v)
	}
	_, _ = w.Write(frame(flagTrailer, []byte(sb.String())))
}

func writeSuccess(w http.ResponseWriter, subtype string, data []byte) {
	w.Header().Set("Content-Type", contentTypePrefix+"+"+subtype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame(0x00, data))
	_, _ = w.Write(frame(flagTrailer, []byte("grpc-status:0\r\n")))
}
