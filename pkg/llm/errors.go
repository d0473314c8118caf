package llm

import "fmt"

// SchemaError reports a malformed or incomplete inbound request.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: field %q: %s", e.Field, e.Reason)
}

// UnsupportedOperationError reports an operation the local path cannot
// satisfy, such as streaming.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return e.Operation + " is not supported in local mode"
}

// CliInvocationError reports a failed or timed-out local CLI invocation.
// Stderr carries the subprocess diagnostics verbatim.
type CliInvocationError struct {
	Command  string
	ExitCode int
	Stderr   string
	Timeout  bool
	Err      error
}

func (e *CliInvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s timed out", e.Command)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}

func (e *CliInvocationError) Unwrap() error { return e.Err }

// CertificateIssuanceError reports that the TLS layer could not mint a leaf
// certificate for a host. Fatal for the offending connection only.
type CertificateIssuanceError struct {
	Host string
	Err  error
}

func (e *CertificateIssuanceError) Error() string {
	return fmt.Sprintf("certificate issuance for %s failed: %v", e.Host, e.Err)
}

func (e *CertificateIssuanceError) Unwrap() error { return e.Err }

// UpstreamTransportError reports that the cloud relay could not reach the
// real provider host.
type UpstreamTransportError struct {
	Host string
	Err  error
}

func (e *UpstreamTransportError) Error() string {
	return fmt.Sprintf("upstream %s unreachable: %v", e.Host, e.Err)
}

func (e *UpstreamTransportError) Unwrap() error { return e.Err }

// PathDeniedError reports an allow-list rejection.
type PathDeniedError struct {
	Path string
}

func (e *PathDeniedError) Error() string {
	return fmt.Sprintf("path %s is not allowed by the proxy", e.Path)
}
