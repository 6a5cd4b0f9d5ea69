// Package meeting создаёт ссылки на видеовстречи.
package meeting

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://meet.jit.si"
	DefaultRoomPrefix = "counseling"
)

// JitsiProvisioner выдаёт ссылку на комнату Jitsi. Комната создаётся при первом входе,
// поэтому сетевой вызов не нужен, а имя комнаты должно быть неугадываемым.
type JitsiProvisioner struct {
	baseURL *url.URL
	prefix  string
	logger  *zap.Logger
}

func NewJitsiProvisioner(baseURL, prefix string, logger *zap.Logger) (*JitsiProvisioner, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse meeting base url: %w", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("parse meeting base url: %q is not an absolute http(s) url", baseURL)
	}
	if prefix = strings.Trim(strings.TrimSpace(prefix), "-"); prefix == "" {
		prefix = DefaultRoomPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &JitsiProvisioner{baseURL: u, prefix: prefix, logger: logger}, nil
}

// CreateLink возвращает ссылку вида <base>/<prefix>-<YYYYMMDD>-<uuid>
func (p *JitsiProvisioner) CreateLink(ctx context.Context, req model.LinkRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("create meeting link: %w", err)
	}
	if req.RequestID == "" {
		return "", fmt.Errorf("create meeting link: request id is empty")
	}

	room := p.prefix + "-"
	if !req.Date.IsZero() {
		room += fmt.Sprintf("%04d%02d%02d-", req.Date.Year, int(req.Date.Month), req.Date.Day)
	}
	room += strings.ReplaceAll(uuid.NewString(), "-", "")

	link := p.baseURL.JoinPath(room).String()

	p.logger.Debug("Meeting room allocated",
		zap.String("request_id", req.RequestID),
		zap.String("room", room),
	)
	return link, nil
}
