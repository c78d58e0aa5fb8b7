package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/pkg/redis"
)

const IdempotencyHeader = "Idempotency-Key"

type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes mutating requests safe to retry. The first
// request under a key claims it and has its response cached; retries with the
// same body replay the cached response, retries with a different body are
// rejected, and a retry racing the first request gets a 409.
func IdempotencyMiddleware(store *redis.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			response.AbortError(c, domainerrors.BadRequest("Idempotency-Key header is required"))
			return
		}

		// Rewind the body so the handler can bind it after we hash it.
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.AbortError(c, domainerrors.BadRequest("Failed to read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		requestHash := fingerprint(c.Request.Method, c.Request.URL.Path, body)

		merchantID, _ := GetMerchantID(c)
		storageKey := fmt.Sprintf("%s:%s", merchantID, key)

		ctx := c.Request.Context()

		record, inFlight, err := store.Get(ctx, storageKey)
		if err != nil {
			// Redis being down should not take payments down with it.
			c.Next()
			return
		}
		if inFlight {
			response.AbortError(c, domainerrors.StateConflict("a request with this idempotency key is already in progress"))
			return
		}
		if record != nil {
			if record.RequestHash != requestHash {
				response.AbortError(c, domainerrors.IdempotencyConflict("idempotency key was used with a different request"))
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(record.Status, "application/json", record.Body)
			c.Abort()
			return
		}

		won, err := store.Claim(ctx, storageKey)
		if err == nil && !won {
			// Lost the race between Get and Claim.
			response.AbortError(c, domainerrors.StateConflict("a request with this idempotency key is already in progress"))
			return
		}

		w := &responseRecorder{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusOK && status < http.StatusInternalServerError {
			// Client errors are cached too: a 402 decline must replay as a
			// decline, not re-attempt the charge.
			_ = store.Complete(ctx, storageKey, &redis.IdempotencyRecord{
				Status:      status,
				Body:        w.body.Bytes(),
				RequestHash: requestHash,
			})
		} else {
			_ = store.Release(ctx, storageKey)
		}
	}
}

func fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
