// Package environment names the deployment stages folio runs in.
//
// The logger picks its format and level from the stage, and the account module
// marks cookies Secure outside development.
package environment
