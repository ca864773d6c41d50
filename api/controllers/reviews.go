package controllers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/mirandavel/tradepost-backend/api/responses"
	"github.com/mirandavel/tradepost-backend/internal/reviews"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
)

const deviceFingerprintHeader = "X-Device-Fingerprint"

// SubmitReview accepts a review for another account. The reviewer identity
// comes from the token, the network attributes from the transport.
func SubmitReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		reviewerID, err := authenticatedAccountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reviews.SubmitReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		req.ReviewerID = reviewerID
		req.SubmitterIP = clientIP(r)
		req.DeviceFingerprint = strings.TrimSpace(r.Header.Get(deviceFingerprintHeader))

		resp, err := svc.Submit(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
