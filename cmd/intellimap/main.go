// IntelliMap maps heterogeneous record data onto a target field catalog
// using an Azure OpenAI deployment.
//
// Input records may be JSON, delimited dictionaries such as
// "[*F1:a,*F2:b] ; [*F1:c]" or key=value lines. Each record is sent to the
// deployment under a shared rate limit, retried on failure, and the model's
// output is repaired and scored.
//
// Usage:
//
//	# Map one file using config.yaml for the Azure settings
//	intellimap map --config config.yaml --targets targets.txt --prompt "Map invoices" invoices.json
//
//	# Map stdin with inline targets
//	cat records.txt | intellimap map --target "F1:Invoice Number" --target "F2:Amount" --prompt-file prompt.txt
//
//	# Re-run whenever inputs change, exposing Prometheus metrics
//	intellimap map --watch --metrics-addr :9090 --targets targets.yaml batches/*.txt
//
//	# Show how inputs are detected and decoded
//	intellimap detect --output yaml records.txt
//
//	# Check configuration
//	intellimap validate --config config.yaml
package main

func main() {
	Execute()
}
