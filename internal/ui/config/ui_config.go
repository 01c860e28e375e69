package ui_config

type Config struct { //nolint:maligned
	CommandSize  int `hcl:"command_size"`
	EquationSize int `hcl:"equation_size"`
	FunctionSize int `hcl:"function_size"`
	// Main loop sleeps this long when keypad queue is empty.
	IdleMs int `hcl:"idle_ms"`

	Window struct {
		XMin float64 `hcl:"xmin"`
		XMax float64 `hcl:"xmax"`
		YMin float64 `hcl:"ymin"`
		YMax float64 `hcl:"ymax"`
	} `hcl:"window"`

	// Extra special functions appended to built-in list.
	Functions []struct {
		Name string `hcl:"name,key"`
		Text string `hcl:"text"`
	} `hcl:"function"`
}
