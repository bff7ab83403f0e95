package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ymtdzzz/jjvm/pkg/bootstrap"
	"github.com/ymtdzzz/jjvm/pkg/classarea"
	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/loader"
	"github.com/ymtdzzz/jjvm/pkg/vm"
)

var (
	trace   bool
	jdkHome string
	jmod    string
)

var runCmd = &cobra.Command{
	Use:   "run <main-class> [classpath...]",
	Short: "Run a Java class's main method",
	Long: `run loads <main-class> (and the optional classpath entries, each a
directory or .jar/.zip archive) and interprets its main(String[]) method
to completion, or until an uncaught exception propagates out of it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mainClass, classpath := args[0], args[1:]

		pathLoader, err := loader.NewPathLoader(classpath...)
		if err != nil {
			return err
		}
		runtimeLoader := loader.NewRuntimeLoader(resolveJmodPath())
		composite := loader.NewCompositeLoader(pathLoader, runtimeLoader)

		area := classarea.NewArea(composite)
		h := heap.NewHeap()
		v := vm.NewVM(area, h)
		bootstrap.Register(v)

		if trace {
			logger := log.New(os.Stderr, "", 0)
			v.Trace = func(format string, a ...interface{}) { logger.Printf(format, a...) }
		}

		className := filepath.ToSlash(mainClass)
		if err := v.Execute(className, nil); err != nil {
			if javaExc, ok := err.(*vm.JavaException); ok {
				javaExc.PrintStackTrace(os.Stderr)
				os.Exit(1)
			}
			return fmt.Errorf("error executing %s: %w", mainClass, err)
		}
		return nil
	},
}

// resolveJmodPath locates java.base.jmod via an explicit flag, then
// JAVA_HOME, then a glob over common system install locations. Returns ""
// (synthetic classes only)
// if none is found.
func resolveJmodPath() string {
	if jmod != "" {
		return jmod
	}
	home := jdkHome
	if home == "" {
		home = os.Getenv("JAVA_HOME")
	}
	if home != "" {
		p := filepath.Join(home, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func init() {
	runCmd.Flags().BoolVar(&trace, "trace", false, "log per-instruction opcode trace to stderr")
	runCmd.Flags().StringVar(&jdkHome, "jdk-home", "", "JDK install to read java.base.jmod from (defaults to $JAVA_HOME)")
	runCmd.Flags().StringVar(&jmod, "jmod", "", "explicit path to java.base.jmod (overrides --jdk-home)")
}
