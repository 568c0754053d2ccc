package helpers

// Default fixtures shared by package and integration tests
var (
	// VulnerableC is a classic stack overflow the Detector role is asked about
	VulnerableC = `#include <string.h>

void copy(const char *src) {
	char buf[16];
	strcpy(buf, src);
}
`

	// PatchedC bounds the copy from VulnerableC
	PatchedC = `#include <string.h>

void copy(const char *src) {
	char buf[16];
	strncpy(buf, src, sizeof(buf) - 1);
	buf[sizeof(buf) - 1] = '\0';
}
`

	// BrokenC does not parse
	BrokenC = `void copy(const char *src {
	char buf[16]
`

	// SliceQuery is a typical CPGQL query produced by the query-generation role
	SliceQuery = `cpg.call.name("strcpy").argument.code.l`

	// SliceOutput is what Joern prints for SliceQuery
	SliceOutput = `val res0: List[String] = List("buf", "src")`

	// DefaultFiles is the file list sent with chat requests
	DefaultFiles = []string{"src/copy.c", "include/copy.h"}
)
