// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

//go:build integration

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/pkg/domainerr"
)

const password = "correct-horse-battery"

func post(path, body string) *http.Response {
	resp, err := http.Post(env.server.URL+path, "application/json", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)
	return resp
}

func session(accessToken string) bool {
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/auth/session", nil)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	var out struct {
		Valid bool `json:"valid"`
	}
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return out.Valid
}

func decodePair(resp *http.Response) auth.TokenPair {
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	var pair auth.TokenPair
	Expect(json.NewDecoder(resp.Body).Decode(&pair)).To(Succeed())
	return pair
}

func decodeError(resp *http.Response) domainerr.Response {
	var out domainerr.Response
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return out
}

func login(username string) auth.TokenPair {
	return decodePair(post("/v1/auth/login", `{"username":"`+username+`","password":"`+password+`"}`))
}

func refresh(secret string) *http.Response {
	return post("/v1/auth/refresh", `{"refresh_token":"`+secret+`"}`)
}

var _ = Describe("Authentication over HTTP", func() {
	var (
		ctx  context.Context
		user *auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)

		var err error
		user, err = env.Service.Register(ctx, auth.RegisterRequest{
			Username: "user1",
			Email:    "user1@example.com",
			Password: password,
			Role:     auth.RoleMember,
		}).Unpack()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("refresh token rotation", func() {
		It("issues a new token and rejects reuse of the old one", func() {
			rt1 := login("user1")
			Expect(rt1.UserID).To(Equal(user.ID))
			Expect(session(rt1.AccessToken)).To(BeTrue())

			rt2 := decodePair(refresh(rt1.RefreshToken))
			Expect(rt2.RefreshTokenID).NotTo(Equal(rt1.RefreshTokenID))
			Expect(rt2.RefreshToken).NotTo(Equal(rt1.RefreshToken))
			Expect(session(rt2.AccessToken)).To(BeTrue())

			reused := refresh(rt1.RefreshToken)
			Expect(reused.StatusCode).To(Equal(http.StatusUnauthorized))
			body := decodeError(reused)
			Expect(body.Name).To(Equal("AuthenticationError"))
			Expect(body.Code).To(Equal(auth.CodeInvalidRefreshToken))

			Expect(decodePair(refresh(rt2.RefreshToken)).RefreshTokenID).NotTo(Equal(rt2.RefreshTokenID))
		})

		It("rejects garbage tokens without revealing why", func() {
			resp := refresh(strings.Repeat("ab", 32))
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(decodeError(resp).Code).To(Equal(auth.CodeInvalidRefreshToken))
		})
	})

	Describe("login", func() {
		It("does not distinguish unknown users from wrong passwords", func() {
			wrong := post("/v1/auth/login", `{"username":"user1","password":"not-the-password"}`)
			unknown := post("/v1/auth/login", `{"username":"nobody","password":"not-the-password"}`)

			Expect(wrong.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(unknown.StatusCode).To(Equal(http.StatusUnauthorized))
			a, b := decodeError(wrong), decodeError(unknown)
			Expect(a.Code).To(Equal(b.Code))
			Expect(a.Message).To(Equal(b.Message))
		})

		It("locks the account after repeated failures", func() {
			var last *http.Response
			for range auth.LockoutThreshold {
				last = post("/v1/auth/login", `{"username":"user1","password":"not-the-password"}`)
			}
			Expect(last.StatusCode).To(Equal(http.StatusUnauthorized))

			resp := post("/v1/auth/login", `{"username":"user1","password":"`+password+`"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("Retry-After")).NotTo(BeEmpty())
			Expect(decodeError(resp).Code).To(Equal(auth.CodeAccountLocked))
		})
	})

	Describe("logout", func() {
		It("revokes the refresh token and is idempotent", func() {
			pair := login("user1")
			body := `{"refresh_token_id":"` + pair.RefreshTokenID.String() + `"}`

			Expect(post("/v1/auth/logout", body).StatusCode).To(Equal(http.StatusNoContent))
			Expect(post("/v1/auth/logout", body).StatusCode).To(Equal(http.StatusNoContent))
			Expect(refresh(pair.RefreshToken).StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("treats a malformed id as already logged out", func() {
			resp := post("/v1/auth/logout", `{"refresh_token_id":"nope"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})
	})

	Describe("password reset", func() {
		It("changes the password and revokes every session", func() {
			pair := login("user1")

			token, err := env.Resets.RequestReset(ctx, "user1@example.com").Unpack()
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())

			_, err = env.Resets.ResetPassword(ctx, token, "a-brand-new-password").Unpack()
			Expect(err).NotTo(HaveOccurred())

			Expect(refresh(pair.RefreshToken).StatusCode).To(Equal(http.StatusUnauthorized))
			resp := post("/v1/auth/login", `{"username":"user1","password":"a-brand-new-password"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("session verification", func() {
		It("reports tampered tokens as invalid", func() {
			pair := login("user1")
			Expect(session(pair.AccessToken + "x")).To(BeFalse())
			Expect(session("")).To(BeFalse())
		})
	})
})
