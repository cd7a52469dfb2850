package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"skillchain/internal/endorsement/handler/mocks"
	"skillchain/internal/endorsement/models"
	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.router = chi.NewRouter()
	s.router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if account := r.Header.Get("X-Test-Account"); account != "" {
					r = r.WithContext(requestcontext.WithAccountID(r.Context(), id.AccountID(account)))
				}
				next.ServeHTTP(w, r)
			})
		})
		h.RegisterCalls(r)
	})
	h.RegisterQueries(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, path, account, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set("X-Test-Account", account)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(code, body["error"])
}

func (s *HandlerSuite) TestEndorse() {
	s.Run("numeric stake", func() {
		s.service.EXPECT().Endorse(gomock.Any(), id.AccountID("carol"), id.CredentialID(0), id.Balance(100)).Return(nil)

		w := s.do(http.MethodPost, "/credentials/0/endorsements", "carol", `{"stake":100}`)

		s.Equal(http.StatusCreated, w.Code)
		var resp EndorseResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(id.CredentialID(0), resp.CredentialID)
		s.Equal(id.AccountID("carol"), resp.Endorser)
		s.Equal(id.Balance(100), resp.Stake)
	})

	s.Run("string stake keeps full u64 precision", func() {
		s.service.EXPECT().Endorse(gomock.Any(), id.AccountID("whale"), id.CredentialID(2), id.MaxBalance).Return(nil)

		w := s.do(http.MethodPost, "/credentials/2/endorsements", "whale", `{"stake":"18446744073709551615"}`)
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("negative stake returns 400", func() {
		w := s.do(http.MethodPost, "/credentials/0/endorsements", "carol", `{"stake":-5}`)
		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("fractional stake returns 400", func() {
		w := s.do(http.MethodPost, "/credentials/0/endorsements", "carol", `{"stake":1.5}`)
		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing stake returns 400", func() {
		w := s.do(http.MethodPost, "/credentials/0/endorsements", "carol", `{}`)
		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("insufficient balance maps to 402", func() {
		s.service.EXPECT().Endorse(gomock.Any(), id.AccountID("carol"), id.CredentialID(0), id.Balance(51)).
			Return(dErrors.New(dErrors.CodeInsufficientBalance, "account carol cannot reserve 51"))

		w := s.do(http.MethodPost, "/credentials/0/endorsements", "carol", `{"stake":51}`)
		s.assertError(w, http.StatusPaymentRequired, "insufficient_balance")
	})

	s.Run("unknown credential with lookup enabled maps to 404", func() {
		s.service.EXPECT().Endorse(gomock.Any(), gomock.Any(), id.CredentialID(999), gomock.Any()).
			Return(dErrors.New(dErrors.CodeCredentialNotFound, "credential 999 not found"))

		w := s.do(http.MethodPost, "/credentials/999/endorsements", "carol", `{"stake":1}`)
		s.assertError(w, http.StatusNotFound, "credential_not_found")
	})

	s.Run("malformed id returns 400", func() {
		w := s.do(http.MethodPost, "/credentials/x/endorsements", "carol", `{"stake":1}`)
		s.assertError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing signer returns 500", func() {
		w := s.do(http.MethodPost, "/credentials/0/endorsements", "", `{"stake":1}`)
		s.assertError(w, http.StatusInternalServerError, "internal_error")
	})
}

func (s *HandlerSuite) TestQueries() {
	s.Run("endorsements", func() {
		s.service.EXPECT().Endorsements(gomock.Any(), id.CredentialID(0)).Return([]models.Endorsement{
			{Endorser: "carol", Stake: 100},
			{Endorser: "dave", Stake: 50},
		}, nil)

		w := s.do(http.MethodGet, "/credentials/0/endorsements", "", "")
		s.Equal(http.StatusOK, w.Code)
		var resp EndorsementsResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.Endorsements, 2)
		s.Equal(id.AccountID("dave"), resp.Endorsements[1].Endorser)
	})

	s.Run("never endorsed renders an empty list", func() {
		s.service.EXPECT().Endorsements(gomock.Any(), id.CredentialID(7)).Return([]models.Endorsement{}, nil)

		w := s.do(http.MethodGet, "/credentials/7/endorsements", "", "")
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"credential_id":7,"endorsements":[]}`, w.Body.String())
	})

	s.Run("score", func() {
		s.service.EXPECT().Score(gomock.Any(), id.CredentialID(0)).Return(id.Balance(150), nil)

		w := s.do(http.MethodGet, "/credentials/0/score", "", "")
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"credential_id":0,"score":150}`, w.Body.String())
	})

	s.Run("backend failure maps to 500", func() {
		s.service.EXPECT().Score(gomock.Any(), id.CredentialID(1)).
			Return(id.Balance(0), dErrors.New(dErrors.CodeInternal, "failed to load score"))

		w := s.do(http.MethodGet, "/credentials/1/score", "", "")
		s.assertError(w, http.StatusInternalServerError, "internal_error")
	})
}
