package pipeline

// ProgressKind enumerates the closed set of progress event variants.
type ProgressKind int

const (
	ProgressDownloading ProgressKind = iota
	ProgressFinished
	ProgressError
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressDownloading:
		return "downloading"
	case ProgressFinished:
		return "finished"
	case ProgressError:
		return "error"
	}
	return "unknown"
}

// ProgressEvent is one coarse-grained progress notification. Percent is
// meaningful for Downloading, Message for Error.
type ProgressEvent struct {
	Kind    ProgressKind
	Percent int
	Message string
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(ProgressEvent)

// observer guards the caller-supplied callback: percentages never go
// backwards and a panicking callback must not fail the job.
type observer struct {
	fn   ProgressFunc
	last int
}

func (o *observer) downloading(percent int) {
	if percent < o.last {
		percent = o.last
	}
	o.last = percent
	o.emit(ProgressEvent{Kind: ProgressDownloading, Percent: percent})
}

func (o *observer) finished() {
	o.emit(ProgressEvent{Kind: ProgressFinished, Percent: 100})
}

func (o *observer) failed(message string) {
	o.emit(ProgressEvent{Kind: ProgressError, Percent: o.last, Message: message})
}

func (o *observer) emit(ev ProgressEvent) {
	if o.fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	o.fn(ev)
}
