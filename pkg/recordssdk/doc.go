/*
Package recordssdk provides a client SDK for the records service.

# Overview

The package is organized around two main types:

  - SDKClient: public reads, registration, health checks, and login
  - Session: authenticated mutations, renewing its token automatically

Create an SDKClient to interact with public endpoints and to log in:

	client := recordssdk.NewSDKClient("https://records.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Register an account (open registration)
	account, err := client.CreateAccount(ctx, recordssdk.CreateAccountRequest{
		Handle:   "alice",
		Email:    "alice@example.com",
		Password: "a long password",
	})

	// Authenticate to create a session
	session, err := client.Login(ctx, "alice@example.com", "a long password")

Use a Session for mutations. Sessions remember the credentials they were
created with and re-run the login exchange when the access token expires, so
callers never manage tokens by hand:

	doc, err := session.CreateDocument(ctx, recordssdk.CreateDocumentRequest{
		Title: "meeting notes",
		Body:  "retro actions",
	})

	err = session.DeleteDocument(ctx, doc.ID)
	restored, err := session.RestoreDocument(ctx, doc.ID)

Privileged operations (purge, role changes, account batch delete) require a
session whose account holds the privileged role; the server enforces this and
the SDK surfaces the rejection as an *APIError.

# Error Handling

Every non-2xx response is returned as an *APIError carrying the HTTP status
and the service's error code. Use HasCode to branch on specific conditions:

	_, err := client.GetAccount(ctx, 42, false)
	if recordssdk.HasCode(err, recordssdk.ErrorCodeNotFound) {
		// the account is hidden or gone
	}

# Thread Safety

Sessions are safe for concurrent use. Token renewal is guarded by a lock, so
multiple goroutines can share a single Session.
*/
package recordssdk
