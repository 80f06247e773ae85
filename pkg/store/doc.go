/*
Package store provides the control-plane-facing persistence layer: tenants,
namespaces, and KV records, backed by Postgres via jackc/pgx.

Unlike the teacher's single-file BoltDB store, tenants and namespaces carry a
real foreign-key relationship (a namespace cannot outlive its tenant, a KV
record cannot outlive its namespace), which RunMigrations expresses as
ON DELETE CASCADE rather than as application-level cleanup code.

# Core Components

Store: the interface every other package depends on (tenant lookup, KV
primitives). Postgres: the pgxpool-backed implementation. RunMigrations:
applies embedded SQL files in order, tracked in a schema_migrations table.
*/
package store
