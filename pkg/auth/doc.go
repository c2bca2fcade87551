// Package auth stores the portal password outside the configuration file.
//
// The system keyring is preferred; an AES-GCM encrypted file under the user
// configuration directory is the fallback on hosts without one.
package auth
