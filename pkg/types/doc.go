/*
Package types defines the core data structures used throughout edgefunc.

This package contains the domain model shared by every other package: tenants,
namespaces, KV records, deployment descriptors, the App runtime-slot states,
and request results. It has no dependencies beyond the standard
library so every other package can import it without cycles.

# Core Types

Tenancy:
  - Tenant: a registered customer
  - Namespace: a tenant-scoped KV key space
  - KVRecord: one key-value entry under a namespace

Deployment:
  - DeploymentDescriptor: archive location, entry script, permission set
  - PermissionSet: the capability surface granted to a deployment's isolate

Runtime:
  - AppState: Empty -> Spawning -> Live -> Closing -> Empty (the App
    itself lives in pkg/app)
  - SessionResult: the eventual outcome of one in-flight request
*/
package types
