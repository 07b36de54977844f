package logx_test

import (
	"strings"
	"testing"

	"github.com/gosimavr/gosimavr/logx"
	"github.com/gosimavr/gosimavr/test"
)

func TestWriteDumpsEntriesOldestFirst(t *testing.T) {
	l := logx.NewLogger(10)
	l.Log(nil, "cpu", "pc=%#06x", 0x10)
	l.Log(nil, "mcu", "reset")

	var w strings.Builder
	l.Write(&w)
	test.ExpectEquality(t, w.String(), "cpu: pc=0x10\nmcu: reset\n")
}

func TestLoggerWrapsAtCapacity(t *testing.T) {
	l := logx.NewLogger(2)
	l.Log(nil, "a", "1")
	l.Log(nil, "b", "2")
	l.Log(nil, "c", "3") // overwrites "a"

	var w strings.Builder
	l.Write(&w)
	test.ExpectEquality(t, w.String(), "b: 2\nc: 3\n")
}

func TestTailReturnsMostRecentN(t *testing.T) {
	l := logx.NewLogger(10)
	for i := 0; i < 5; i++ {
		l.Log(nil, "x", "%d", i)
	}

	var w strings.Builder
	l.Tail(&w, 2)
	test.ExpectEquality(t, w.String(), "x: 3\nx: 4\n")
}

func TestTailWithNGreaterThanRetainedIsNotAnError(t *testing.T) {
	l := logx.NewLogger(10)
	l.Log(nil, "x", "only")

	var w strings.Builder
	l.Tail(&w, 50)
	test.ExpectEquality(t, w.String(), "x: only\n")
}

func TestClearEmptiesTheLogger(t *testing.T) {
	l := logx.NewLogger(4)
	l.Log(nil, "a", "1")
	l.Clear()

	var w strings.Builder
	l.Write(&w)
	test.ExpectEquality(t, w.String(), "")
}

type denyingPermission struct{}

func (denyingPermission) AllowLogging() bool { return false }

func TestPermissionCanSuppressLogging(t *testing.T) {
	l := logx.NewLogger(4)
	l.Log(denyingPermission{}, "a", "should not appear")

	var w strings.Builder
	l.Write(&w)
	test.ExpectEquality(t, w.String(), "")
}

func TestCentralLogIsReachableViaPackageFunctions(t *testing.T) {
	logx.Central().Clear()
	logx.Log("central", "hello")

	var w strings.Builder
	logx.Central().Tail(&w, 1)
	test.ExpectEquality(t, w.String(), "central: hello\n")
}
