package history

import (
	"reflect"
	"testing"
	"time"
)

func TestLog(test *testing.T) {
	if _, err := NewLog(0); err == nil {
		test.Error("NewLog(0):", "expected error got nil")
	}
	if _, err := NewLog(-1); err == nil {
		test.Error("NewLog(-1):", "expected error got nil")
	}

	at := time.Unix(1700000000, 0)
	e1 := Entry{Sender: "alice", Body: "1", At: at}
	e2 := Entry{Sender: "bob", Body: "2", At: at}
	e3 := Entry{Sender: "alice", Body: "3", At: at}

	l, _ := NewLog(2)
	l.Push(e1)
	l.Push(e2)
	l.Push(e3)
	if l.Len() != 2 {
		test.Error("Unexpected Log len", l.Len())
	}

	if tail := l.Tail(0); !reflect.DeepEqual(tail, []Entry{}) {
		test.Error("Unexpected Tail(0) result", tail)
	}
	if tail := l.Tail(2); !reflect.DeepEqual(tail, []Entry{e2, e3}) {
		test.Error("Unexpected Tail(2) result", tail)
	}
	if tail := l.Tail(-2); !reflect.DeepEqual(tail, []Entry{e2, e3}) {
		test.Error("Unexpected Tail(-2) result", tail)
	}
	if tail := l.Tail(100); !reflect.DeepEqual(tail, []Entry{e2, e3}) {
		test.Error("Unexpected Tail(100) result", tail)
	}
}

func TestLog_Clear(test *testing.T) {
	l, _ := NewLog(4)
	l.Push(Entry{Sender: "alice", Body: "secret"})
	l.Push(Entry{Sender: "bob", Body: "reply"})

	l.Clear()
	if l.Len() != 0 {
		test.Error("Unexpected Log len after Clear", l.Len())
	}
	if tail := l.Tail(10); len(tail) != 0 {
		test.Error("Unexpected Tail after Clear", tail)
	}
}
