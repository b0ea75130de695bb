package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientInvokeSuccess(t *testing.T) {
	var gotRequest invokeRequest
	var gotAPIKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"response": {
				"status": "success",
				"message": "done",
				"result": {
					"invites_sent": [{"email":"a@b.com","slack_user_id":"U001","slack_user_name":"alice","message_sent":true,"timestamp":"123.456"}],
					"invites_failed": [],
					"summary": {"total_emails":1,"successful_count":1,"failed_count":0}
				}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	resp, err := client.Invoke(context.Background(), "invite a@b.com")
	require.NoError(t, err)

	assert.Equal(t, "sekret", gotAPIKey)
	assert.Equal(t, "agent-42", gotRequest.AgentID)
	assert.Equal(t, "invite a@b.com", gotRequest.Instruction)

	assert.Equal(t, StatusSuccess, resp.Status)
	require.NotNil(t, resp.Result)
	require.Len(t, resp.Result.InvitesSent, 1)
	assert.Equal(t, "U001", resp.Result.InvitesSent[0].SlackUserID)
	assert.Equal(t, 1, resp.Result.Summary.TotalEmails)
}

func TestClientInvokeEnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"agent crashed","details":"boom","raw_response":"\"stack trace\""}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	resp, err := client.Invoke(context.Background(), "invite a@b.com")
	assert.Nil(t, resp)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "agent crashed", callErr.Message)
	assert.Equal(t, "boom", callErr.Details)
	assert.Equal(t, CodeGeneric, callErr.Code)
}

func TestClientInvokeMissingScopeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"Slack API error","details":"missing_scope: channels:manage required"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	_, err := client.Invoke(context.Background(), "invite a@b.com")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, CodeMissingScope, callErr.Code)
}

func TestClientInvokeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	_, err := client.Invoke(context.Background(), "invite a@b.com")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Contains(t, callErr.Message, "502")
	assert.Contains(t, callErr.Raw, "upstream exploded")
	assert.Equal(t, CodeGeneric, callErr.Code)
}

func TestClientInvokeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	_, err := client.Invoke(context.Background(), "invite a@b.com")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "malformed agent response", callErr.Message)
}

func TestClientInvokeTransportFailure(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	_, err := client.Invoke(context.Background(), "invite a@b.com")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "agent request failed", callErr.Message)
}

func TestClientInvokeSuccessWithoutResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "agent-42", "sekret")
	_, err := client.Invoke(context.Background(), "invite a@b.com")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Contains(t, callErr.Message, "without a response")
}

func TestCallErrorError(t *testing.T) {
	assert.Equal(t, "broke", (&CallError{Message: "broke"}).Error())
	assert.Equal(t, "broke: badly", (&CallError{Message: "broke", Details: "badly"}).Error())
}
