package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-delve/delve/service"
	"github.com/go-delve/delve/service/api"
	"github.com/go-delve/delve/service/debugger"
	"github.com/go-delve/delve/service/rpc2"
	"github.com/go-delve/delve/service/rpccommon"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rsclarke/tlskeytap/internal/keylog"
	"github.com/rsclarke/tlskeytap/internal/logging"
)

// keyLogFunc is where crypto/tls hands finished session secrets to the
// application's KeyLogWriter; it is reached even when no writer is
// configured, which is what makes it a usable extraction point.
const keyLogFunc = "crypto/tls.(*Config).writeKeyLog"

var attachFlags struct {
	pid    int
	name   string
	cmd    string
	output string
}

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Extract secrets from a Go process via a debugger",
	Long: `Attach is the debugger-based alternative producer. It attaches a
delve debugger to a running Go process (or launches one), breaks where
crypto/tls finalizes handshake secrets, reads the client random and master
secret out of the paused process, and appends the same CLIENT_RANDOM lines
the interception shim produces.

Unlike the shim, this pauses the target briefly at every handshake; it is
meant for targets that cannot be restarted under LD_PRELOAD.`,
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.Flags().IntVar(&attachFlags.pid, "pid", 0, "pid to attach to")
	attachCmd.Flags().StringVar(&attachFlags.name, "name", "", "process name to attach to")
	attachCmd.Flags().StringVar(&attachFlags.cmd, "cmd", "", "command to launch and attach to")
	attachCmd.Flags().StringVarP(&attachFlags.output, "output", "o", "",
		"key log file (default: $SSLKEYLOGFILE, else keys.log)")
}

func runAttach(cmd *cobra.Command, args []string) error {
	path := attachFlags.output
	if path == "" {
		path = os.Getenv("SSLKEYLOGFILE")
	}
	if path == "" {
		path = "keys.log"
	}

	pid := attachFlags.pid
	kill := false
	switch {
	case attachFlags.cmd != "":
		argv, err := shlex.Split(attachFlags.cmd)
		if err != nil {
			return fmt.Errorf("splitting --cmd: %w", err)
		}
		c := exec.Command(argv[0], argv[1:]...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Start(); err != nil {
			return fmt.Errorf("launching target: %w", err)
		}
		pid = c.Process.Pid
		kill = true
	case attachFlags.name != "":
		var err error
		pid, err = pidof(attachFlags.name)
		if err != nil {
			return err
		}
	case pid == 0:
		return fmt.Errorf("one of --pid, --name or --cmd is required")
	}

	writer := keylog.NewWriter(path, true)
	defer writer.Close()

	listener, conn := service.ListenerPipe()
	defer listener.Close()

	server := rpccommon.NewServer(&service.Config{
		Listener:   listener,
		APIVersion: 2,
		Debugger: debugger.Config{
			AttachPid:      pid,
			Backend:        "default",
			CheckGoVersion: true,
		},
	})
	if err := server.Run(); err != nil {
		return fmt.Errorf("attaching debugger to pid %d: %w", pid, err)
	}

	client := rpc2.NewClientFromConn(conn)
	defer client.Detach(kill)

	_, err := client.CreateBreakpoint(&api.Breakpoint{
		FunctionName: keyLogFunc,
		LoadArgs: &api.LoadConfig{
			FollowPointers:     true,
			MaxVariableRecurse: 1,
			MaxStringLen:       64,
			MaxArrayValues:     128,
			MaxStructFields:    -1,
		},
	})
	if err != nil {
		return fmt.Errorf("setting breakpoint on %s: %w", keyLogFunc, err)
	}

	logger.Info("attached, waiting for handshakes",
		logging.Pid(pid), logging.KeyLogPath(path))

	for {
		state := <-client.Continue()
		if state == nil || state.Exited {
			logger.Info("target exited")
			return nil
		}
		if state.Err != nil {
			return fmt.Errorf("target stopped: %w", state.Err)
		}
		if state.CurrentThread == nil || state.CurrentThread.BreakpointInfo == nil {
			continue
		}
		emitKeyLog(writer, state.CurrentThread.BreakpointInfo.Arguments)
	}
}

// emitKeyLog converts one writeKeyLog invocation into a key log line.
// Only TLS 1.2 CLIENT_RANDOM entries carry a 48-byte master secret; the
// TLS 1.3 traffic-secret labels are skipped.
func emitKeyLog(w *keylog.Writer, args []api.Variable) {
	var label string
	var clientRandom, secret []byte
	for _, arg := range args {
		switch arg.Name {
		case "label":
			label = arg.Value
		case "clientRandom":
			clientRandom = varToBytes(arg)
		case "secret", "masterSecret":
			secret = varToBytes(arg)
		}
	}

	if label != keylog.Label {
		logger.Debug("skipping non-master-secret entry", zap.String("label", label))
		return
	}
	if len(clientRandom) != keylog.ClientRandomSize || len(secret) != keylog.MasterSecretSize {
		logger.Warn("unexpected secret sizes",
			zap.Int("client_random", len(clientRandom)), zap.Int("secret", len(secret)))
		return
	}

	var rec keylog.Record
	copy(rec.ClientRandom[:], clientRandom)
	copy(rec.MasterSecret[:], secret)
	if err := w.Append(rec); err != nil {
		logger.Warn("key log append failed", zap.Error(err))
		return
	}
	logger.Info("captured session",
		zap.String("client_random", fmt.Sprintf("%X...", rec.ClientRandom[:8])))
}

// varToBytes flattens a delve []byte variable.
func varToBytes(v api.Variable) []byte {
	n := len(v.Children)
	if int(v.Len) < n {
		n = int(v.Len)
	}
	out := make([]byte, n)
	for i := range out {
		b, _ := strconv.Atoi(v.Children[i].Value)
		out[i] = byte(b)
	}
	return out
}

// pidof finds a process by comm name under /proc.
func pidof(name string) (int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(comm)) == name {
			return pid, nil
		}
	}
	return 0, fmt.Errorf("no process named %q", name)
}
