package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	registryhandler "skillchain/internal/registry/handler"
	id "skillchain/pkg/domain"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	var gotAuth, gotBody, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":4}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("tkn"))
	resp, err := c.Mint(context.Background(), registryhandler.MintRequest{MetadataRef: "cid:abc", Soulbound: true})
	require.NoError(t, err)

	assert.Equal(t, id.CredentialID(4), resp.ID)
	assert.Equal(t, "Bearer tkn", gotAuth)
	assert.Equal(t, "/credentials", gotPath)
	assert.JSONEq(t, `{"metadata_ref":"cid:abc","soulbound":true}`, gotBody)
}

func TestClientEndorseSendsFullPrecisionStake(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/credentials/2/endorsements", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"credential_id":2,"endorser":"whale","stake":18446744073709551615}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Endorse(context.Background(), 2, id.MaxBalance)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", string(body["stake"]))
	assert.Equal(t, id.MaxBalance, resp.Stake)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient_balance","error_description":"account dave cannot reserve 51"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Endorse(context.Background(), 0, 51)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
	assert.Equal(t, "insufficient_balance", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "cannot reserve 51")
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Score(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Code)
}

func TestAccountPathEscapes(t *testing.T) {
	assert.Equal(t, "/accounts/alice/balance", accountPath("alice", "balance"))
	assert.Equal(t, "/credentials/7", credentialPath(7, ""))
}
