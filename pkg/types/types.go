package types

import "time"

// Tenant represents a registered edgefunc customer, the owner of one or more
// namespaces and the deployments that run under them.
type Tenant struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Namespace is a tenant-scoped key space. Every KV Record belongs to exactly
// one namespace, and every namespace belongs to exactly one tenant.
type Namespace struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// KVRecord is a single key-value entry persisted under a namespace. Value is
// stored as opaque JSON (jsonb in Postgres) and is never interpreted by the
// runtime fabric itself.
type KVRecord struct {
	NamespaceID string
	Key         string
	Value       []byte
	UpdatedAt   time.Time
}

// PermissionSet describes the capability surface granted to a deployment's
// isolate, mirroring the original implementation's
// {allow_env, allow_ffi, allow_hrtime, allow_run, allow_write, allow_net,
// allow_read, prompt} bundle. An option left unset denies that capability,
// except AllowNet (unrestricted by default) and AllowRead (restricted to
// the unpacked deployment subtree by default). Only AllowNet is currently
// enforced by pkg/isolate; the rest are carried on the type so a future
// capability (filesystem, subprocess, env) has a defined home.
type PermissionSet struct {
	AllowNet    []string // nil = unrestricted (default), empty slice = denied, non-empty = allow-listed hosts
	AllowEnv    []string // nil/empty = denied (default); non-empty = allow-listed env var names
	AllowRun    []string // nil/empty = denied (default); non-empty = allow-listed executables
	AllowWrite  []string // nil/empty = denied (default); non-empty = allow-listed paths
	AllowRead   []string // nil = restricted to the unpacked deployment subtree (default); non-empty = additional allow-listed paths
	AllowFFI    bool     // false by default
	AllowHrtime bool     // false by default; gates high-resolution timer access
	Prompt      bool     // false by default; this fabric never prompts interactively, so true has no effect
}

// DeploymentDescriptor identifies one deployable unit: the object storage key
// of its archive, the entry script to run inside the isolate, and the
// capability surface it is granted.
type DeploymentDescriptor struct {
	ID          string
	TenantID    string
	ArchiveKey  string // object storage key of the zip bundle
	EntryScript string // path inside the unpacked archive; always "main.js" at the archive root
	Permissions PermissionSet
	CreatedAt   time.Time
}

// AppState is one state in the runtime slot lifecycle of an App.
type AppState string

const (
	AppStateEmpty    AppState = "empty"    // no worker running
	AppStateSpawning AppState = "spawning" // worker goroutine starting, slot not yet published
	AppStateLive     AppState = "live"     // slot holds a usable request sender
	AppStateClosing  AppState = "closing"  // worker tearing down, slot being cleared
)

// SessionResult is what a worker hands back to the Request Router once a
// script's onRequest handler settles (or the worker fails to produce one).
type SessionResult struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Err        error
}
