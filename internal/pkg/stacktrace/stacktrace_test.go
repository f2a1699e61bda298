package stacktrace

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/gotp/internal/pkg/router.middlewareRecovery.func1.1()
	/src/gotp/internal/pkg/router/middleware_recover.go:28 +0x6a
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/gotp/internal/otp/inbound.(*HTTPEndpoint).Request(...)
	/src/gotp/internal/otp/inbound/http_endpoint.go:41
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:28",
		"internal/otp/inbound/http_endpoint.go:41",
	}, InternalPaths(stack))
}

func TestInternalPaths_NoInternalFrames(t *testing.T) {
	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/tmp/main.go:5 +0x1\n")))
	assert.Empty(t, InternalPaths(nil))
}

func TestInternalPaths_RealStack(t *testing.T) {
	paths := InternalPaths(debug.Stack())

	assert.NotEmpty(t, paths)
	assert.Contains(t, paths[0], "internal/pkg/stacktrace/stacktrace_test.go:")
}
