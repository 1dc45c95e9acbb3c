package service

import (
	"fmt"
	"strings"

	"licitaflow/internal/config"
)

func New(cfg config.Config) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.ServiceMode)) {
	case "", "http":
		return NewHTTPService(cfg.ServiceBaseURL, WithTimeouts(cfg.IngestTimeout, cfg.DetailTimeout)), nil
	case "mock":
		return NewMockService(), nil
	default:
		return nil, fmt.Errorf("unsupported service mode: %s", cfg.ServiceMode)
	}
}
