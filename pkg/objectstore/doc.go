/*
Package objectstore wraps aws-sdk-go-v2's S3 client behind the single
operation the Deployment Loader needs: fetching a tenant's deployment
archive by object key.
*/
package objectstore
