// Package httpclient is the HTTP transport used by the REST transcription
// adapters.
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:    "deepgram",
//	    BaseURL: "https://api.deepgram.com",
//	    Auth:    httpclient.HeaderAuth("Authorization", "Token", key),
//	})
//	resp, err := client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/v1/listen", Body: f})
//
// Status codes are classified into typed errors (ClassifyStatusCode) and
// ToAppError maps those onto the retry taxonomy of package errors.
package httpclient
