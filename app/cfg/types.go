package cfg

// Cfg holds the resolved process options and the selected command.
type Cfg struct {
	ConfigPath string
	DataDir    string
	Port       string
	UserAgent  string
	LogLevel   string
	Debug      bool
	Version    string

	Command string
	Run     RunOpts
	Read    ReadOpts
	Write   WriteOpts
	Config  ConfigOpts
}

// RunOpts controls the run command.
type RunOpts struct {
	Once    bool `long:"once" description:"Process feeds once and exit"`
	DryRun  bool `long:"dry-run" description:"Show what would be done without executing actions"`
	Verbose bool `short:"v" long:"verbose" description:"Show detailed output"`
}

// ReadOpts controls the read command.
type ReadOpts struct {
	Key string `short:"k" long:"key" description:"Key to read; all keys when omitted"`
}

// WriteOpts controls the write command.
type WriteOpts struct {
	Key   string `short:"k" long:"key" required:"true" description:"Key to write"`
	Value string `long:"value" required:"true" description:"Value to write (JSON or plain string)"`
}

// ConfigOpts controls the config command.
type ConfigOpts struct {
	Show    bool `long:"show" description:"Show the current configuration"`
	Example bool `long:"example" description:"Print an example configuration"`
}
