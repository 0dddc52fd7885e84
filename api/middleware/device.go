package middleware

import (
	"net/http"

	"github.com/angelmondragon/cropmarket-backend/api/responses"
	"github.com/angelmondragon/cropmarket-backend/api/validators"
	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
)

const (
	DeviceIDHeader    = "X-Device-Id"
	maxDeviceIDLength = 128
)

// Device requires the X-Device-Id header. Each device owns one cart.
func Device(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := validators.SanitizeString(r.Header.Get(DeviceIDHeader), maxDeviceIDLength)
			if deviceID == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "device id required").
						WithDetails(map[string]any{"header": DeviceIDHeader}))
				return
			}

			ctx := WithDeviceID(r.Context(), deviceID)
			if logg != nil {
				ctx = logg.WithDeviceID(ctx, deviceID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
