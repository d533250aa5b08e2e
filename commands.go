package soilview

// Command is a side effect requested by a primitive while handling input.
// The application executes it after the handler returns.
type Command any

// BatchCommand groups commands.
type BatchCommand []Command

// AppendCommand merges next into current, flattening batches.
func AppendCommand(current Command, next Command) Command {
	if next == nil {
		return current
	}
	if current == nil {
		return next
	}

	var batch BatchCommand
	if c, ok := current.(BatchCommand); ok {
		batch = append(batch, c...)
	} else {
		batch = append(batch, current)
	}
	if n, ok := next.(BatchCommand); ok {
		batch = append(batch, n...)
	} else {
		batch = append(batch, next)
	}
	return batch
}

type SetFocusCommand struct {
	Target Primitive
}

// RedrawCommand requests a redraw once the event is handled.
type RedrawCommand struct{}

// QuitCommand stops the application.
type QuitCommand struct{}

// ConsumeEventCommand marks the event handled without redrawing.
type ConsumeEventCommand struct{}
