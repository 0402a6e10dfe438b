package log

import "log/slog"

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func NodeID[T ~string](id T) slog.Attr {
	return slog.String("node_id", string(id))
}

func ProjectID[T ~string](id T) slog.Attr {
	return slog.String("project_id", string(id))
}

func ArtifactID[T ~string](id T) slog.Attr {
	return slog.String("artifact_id", string(id))
}

func Code[T ~string](code T) slog.Attr {
	return slog.String("execution_code", string(code))
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
