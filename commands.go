package driftfield

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// Quit stops the app after the current frame.
func (cmd *Commands) Quit() {
	cmd.app.quit(ErrQuit)
}

// Fail stops the app after the current frame; Run returns err.
func (cmd *Commands) Fail(err error) {
	cmd.app.quit(err)
}

// OnShutdown registers fn to run when Run returns. Hooks run last-in first-out.
func (cmd *Commands) OnShutdown(fn func()) *Commands {
	cmd.app.onShutdown(fn)
	return cmd
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}
