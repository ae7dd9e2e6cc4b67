// Package azure implements the Azure OpenAI chat completions client.
//
// A request is POSTed to
//
//	{endpoint}/openai/deployments/{deployment}/chat/completions?api-version={version}
//
// with the api-key header and a body of the form
//
//	{"messages":[{"role":"system","content":...},{"role":"user","content":"InputDictionary:\n..."}],
//	 "max_tokens":1000,"temperature":0.1}
//
// # Basic Usage
//
//	client, err := azure.NewClient(azure.Config{
//	    Endpoint:   "https://example.openai.azure.com/",
//	    APIKey:     os.Getenv("AZURE_OPENAI_KEY"),
//	    Deployment: "gpt-4o",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	req := azure.NewMappingRequest(systemPrompt, recordJSON, 1000, 0.1)
//	resp, err := client.Send(ctx, req)
//
// Send makes exactly one attempt. Wrap the client in a providers.Retrier for
// backoff.
package azure
