package core

import (
	"os"
	"strings"
)

// EnvHome names the variable consulted by cd without arguments.
const EnvHome = "HOME"

// builtins is the fixed vocabulary handled by the interpreter itself,
// matched case-sensitively against the first word. exit is not here; the
// loop handles it because it ends the loop.
var builtins = map[string]func(s *Shell, args []string){
	"export": exportBuiltin,
	"unset":  unsetBuiltin,
	"cd":     cdBuiltin,
}

// exportBuiltin sets one variable per KEY=VALUE argument, overwriting
// existing values. An argument without "=" is deliberately ignored: it
// neither exports the variable's current value nor reports an error.
func exportBuiltin(s *Shell, args []string) {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		if err := s.Env.Setenv(key, value); err != nil {
			s.errorf("Couldn't set %s: %v", arg, err)
		}
	}
}

// unsetBuiltin removes each named variable. Unsetting a variable that was
// never set is not an error.
func unsetBuiltin(s *Shell, args []string) {
	for _, arg := range args {
		if err := s.Env.Unsetenv(arg); err != nil {
			s.errorf("Couldn't unset %s: %v", arg, err)
		}
	}
}

// cdBuiltin changes the working directory, to $HOME when called without
// arguments. Every failure leaves the working directory unchanged.
func cdBuiltin(s *Shell, args []string) {
	var dir string
	switch len(args) {
	case 0:
		home, ok := s.Env.LookupEnv(EnvHome)
		if !ok {
			s.errorf("HOME not set")
			return
		}
		dir = home
	case 1:
		dir = args[0]
	default:
		s.errorf("Too many arguments")
		return
	}

	if err := s.chdir(dir); err != nil {
		s.errorf("Couldn't cd to %s: %v", dir, err)
	}
}

// chdir is os.Chdir unless a test replaced it.
func (s *Shell) chdir(dir string) error {
	if s.Chdir != nil {
		return s.Chdir(dir)
	}
	return os.Chdir(dir)
}
