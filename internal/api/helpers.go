package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/http/response"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.Validation("request body is empty")
		}
		return errors.Validationf("invalid JSON body: %v", err)
	}
	if err := s.validator.Validate(dst); err != nil {
		return err
	}
	return nil
}

// allowDevice applies the per-device report limit and writes a 429 when
// the device is over it.
func (s *Server) allowDevice(w http.ResponseWriter, deviceID string) bool {
	if s.limiter == nil || s.limiter.Allow(deviceID) {
		return true
	}
	s.logger.Warn("rate limit exceeded", "device_id", deviceID)
	response.TooManyRequests(w, fmt.Sprintf("too many reports from device %s", deviceID), s.logger)
	return false
}
