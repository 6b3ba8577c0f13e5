package handler

import (
	"net/http"

	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/req"
	"campusportal/internal/pkg/resp"
)

// HandlePowChallenge issues a new Proof-of-Work nonce.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"nonce":      deps.Pow.GenerateNonce(),
			"difficulty": deps.Pow.Difficulty(),
		})
	}
}

type PowVerifyInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandlePowVerify trades a solved challenge for a single-use proof token.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowVerifyInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.Pow.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			logx.Warn("PoW verification failed", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"token": token})
	}
}
