// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &stdout
	cmd.ErrWriter = &stderr
	err := cmd.Run(context.Background(), append([]string{"accountctl"}, args...))
	return stdout.String(), stderr.String(), err
}

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	orig := readPassword
	readPassword = func() (string, error) { return pw, err }
	t.Cleanup(func() { readPassword = orig })
}

func TestAddUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"a@x.com","password":"pw"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"email":"a@x.com","version":1}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"email":"a@x.com","password":"pw"}`), 0o600))

	out, _, err := run(t, "--endpoint", srv.URL, "add-user", path)

	require.NoError(t, err)
	assert.Contains(t, out, `"version": 1`)
}

func TestAddUser_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, _, err := run(t, "add-user", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid JSON")
}

func TestAddUser_MissingArgument(t *testing.T) {
	_, _, err := run(t, "add-user")

	assert.Error(t, err)
}

func TestGetUser_PasswordArgument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pw", r.Header.Get("password"))
		_, _ = w.Write([]byte(`{"email":"a@x.com"}`))
	}))
	defer srv.Close()
	stubPassword(t, "", errors.New("should not prompt"))

	out, _, err := run(t, "--endpoint", srv.URL, "get-user", "a@x.com", "pw")

	require.NoError(t, err)
	assert.Contains(t, out, "a@x.com")
}

func TestGetUser_PromptsForPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "prompted", r.Header.Get("password"))
		_, _ = w.Write([]byte(`{"email":"a@x.com"}`))
	}))
	defer srv.Close()
	stubPassword(t, "prompted", nil)

	_, stderr, err := run(t, "--endpoint", srv.URL, "get-user", "a@x.com")

	require.NoError(t, err)
	assert.Contains(t, stderr, "Enter password: ")
}

func TestGetUser_PromptError(t *testing.T) {
	stubPassword(t, "", errors.New("no tty"))

	_, _, err := run(t, "get-user", "a@x.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading password")
}

func TestDeleteUser_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unable to validate user with provided credentials.","kind":"UNAUTHORIZED"}`))
	}))
	defer srv.Close()

	_, _, err := run(t, "--endpoint", srv.URL, "delete-user", "a@x.com", "wrong")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestInvalidAuthFlag(t *testing.T) {
	_, _, err := run(t, "--auth", "nocolon", "get-user", "a@x.com", "pw")

	assert.Error(t, err)
}

func TestPrintJSON_NotJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, printJSON(&buf, []byte("plain")))

	assert.Equal(t, "plain", buf.String())
}
