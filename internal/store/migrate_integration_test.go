// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/teamforge/teamforge/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		migrator  *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("teamforge_test"),
			postgres.WithUsername("teamforge"),
			postgres.WithPassword("teamforge"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if migrator != nil {
			Expect(migrator.Close()).To(Succeed())
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	It("starts at version 0 with everything pending", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(HaveLen(3))
	})

	It("applies all migrations and is idempotent", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed())

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))
		Expect(dirty).To(BeFalse())
	})

	It("enforces the refresh token constraints", func() {
		pool, err := store.Connect(ctx, connStr, store.DefaultConnectOptions)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		mustExec(ctx, pool, `INSERT INTO users (id, username, password_hash) VALUES ('u1', 'alice', 'h')`)
		mustExec(ctx, pool, `INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at)
			VALUES ('t1', 'u1', 'hash', now(), now() + interval '1 hour')`)

		_, err = pool.Exec(ctx, `INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at)
			VALUES ('t2', 'u1', 'hash', now(), now() + interval '1 hour')`)
		Expect(err).To(HaveOccurred(), "token hashes are unique")

		_, err = pool.Exec(ctx, `INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at)
			VALUES ('t3', 'u1', 'other', now(), now())`)
		Expect(err).To(HaveOccurred(), "expiry must follow issue")

		_, err = pool.Exec(ctx, `INSERT INTO users (id, username, password_hash) VALUES ('u2', 'ALICE', 'h')`)
		Expect(err).To(HaveOccurred(), "usernames are unique regardless of case")

		mustExec(ctx, pool, `DELETE FROM users WHERE id = 'u1'`)
		var n int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM refresh_tokens`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero(), "tokens are removed with their user")
	})

	It("steps down and back up", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))
	})

	It("rolls everything back", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})
})

func mustExec(ctx context.Context, pool *pgxpool.Pool, sql string) {
	GinkgoHelper()
	_, err := pool.Exec(ctx, sql)
	Expect(err).NotTo(HaveOccurred())
}
