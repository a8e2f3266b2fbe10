package bough

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var Version = "dev"

// Run is the CLI entry point. It wires the production collaborators and
// dispatches to one workflow per subcommand.
func Run(args []string) int {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorMsg(err.Error()))
		return 1
	}
	eng := NewEngine(NewGitRunner(), cfg, newTviewPrompter(), NewEditorHost(cfg), NewNotifier())

	if len(args) == 0 {
		return runUI(eng)
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "ui":
		return runUI(eng)
	case "new":
		return runNew(eng, rest)
	case "switch":
		return runSwitch(eng, rest)
	case "sync":
		return runSync(eng, rest)
	case "resync":
		return runResync(eng, rest)
	case "rm", "remove":
		return runRemove(eng, rest)
	case "list":
		return runList(eng, rest)
	case "state":
		return runState(eng, rest)
	case "doctor":
		return runDoctor(eng, rest)
	case "version", "--version", "-v":
		fmt.Println(Version)
		return 0
	case "help", "--help", "-h":
		printHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintln(os.Stderr, errorMsg("unknown command: "+cmd))
		printHelp(os.Stderr)
		return 1
	}
}

// requireRepoHere resolves the repository containing the process working
// directory.
func requireRepoHere(eng *Engine) (RepoContext, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return RepoContext{}, "", err
	}
	repo, err := RequireRepo(eng.git, cwd)
	if err != nil {
		return RepoContext{}, "", err
	}
	return repo, cwd, nil
}

// reportError prints err unless it is a dismissed prompt, which is a
// silent no-op by design.
func reportError(err error) int {
	if errors.Is(err, ErrCancelled) {
		return 0
	}
	fmt.Fprintln(os.Stderr, errorMsg(err.Error()))
	return 1
}

func runNew(eng *Engine, args []string) int {
	mode := CreateFromDefault
	base := ""
	positionals := []string{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--local":
			mode = CreateFromLocal
		case "--remote":
			mode = CreateCloneRemote
		case "--base":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, errorMsg("--base requires a ref"))
				return 1
			}
			base = args[i+1]
			i++
		case "-h", "--help":
			fmt.Fprintln(os.Stdout, "usage: bough new [--local|--remote] [--base <ref>] [name]")
			return 0
		default:
			if strings.HasPrefix(args[i], "-") {
				fmt.Fprintln(os.Stderr, errorMsg("unknown option for new: "+args[i]))
				return 1
			}
			positionals = append(positionals, args[i])
		}
	}

	repo, _, err := requireRepoHere(eng)
	if err != nil {
		return reportError(err)
	}

	// Name plus base on the command line skips the prompts entirely.
	if len(positionals) == 1 && base != "" {
		result, err := eng.CreateBranchNamed(repo, positionals[0], base)
		if err != nil {
			return reportError(err)
		}
		fmt.Println(successMsg(fmt.Sprintf("created %s at %s", result.Branch, stylePath.Render(result.Path))))
		return 0
	}

	result, err := eng.CreateBranch(repo, mode)
	if err != nil {
		return reportError(err)
	}
	fmt.Println(successMsg(fmt.Sprintf("created %s at %s", result.Branch, stylePath.Render(result.Path))))
	return 0
}

func runSwitch(eng *Engine, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, errorMsg("usage: bough switch"))
		return 1
	}
	repo, cwd, err := requireRepoHere(eng)
	if err != nil {
		return reportError(err)
	}
	if err := eng.SwitchBranch(repo, cwd); err != nil {
		return reportError(err)
	}
	return 0
}

func runSync(eng *Engine, args []string) int {
	repo, cwd, err := requireRepoHere(eng)
	if err != nil {
		return reportError(err)
	}

	branch := ""
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, errorMsg("usage: bough sync [branch]"))
		return 1
	}
	if len(args) == 1 {
		branch = args[0]
	} else {
		branch = eng.CurrentBranch(cwd)
		if branch == "" {
			fmt.Fprintln(os.Stderr, errorMsg("detached HEAD; pass a branch name"))
			return 1
		}
	}

	result, err := eng.Sync(repo, branch)
	if err != nil {
		return reportError(err)
	}
	switch result.State {
	case SyncIdle:
		if result.Aborted {
			fmt.Println(warnMsg(fmt.Sprintf("merge aborted; %s is unchanged", result.Branch)))
			break
		}
		fmt.Println(successMsg(fmt.Sprintf("%s is up to date with the default integration branch", result.Branch)))
	case SyncConflicted:
		fmt.Println(warnMsg(fmt.Sprintf("merge conflicts in %s: %s", result.Dir, strings.Join(result.ConflictFiles, ", "))))
		fmt.Println(styleDim.Render("resolve them, then run: bough resync " + result.Dir))
	}
	return 0
}

func runResync(eng *Engine, args []string) int {
	dir := "."
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, errorMsg("usage: bough resync [dir]"))
		return 1
	}
	if len(args) == 1 {
		dir = args[0]
	}

	result, err := eng.Resync(dir)
	if err != nil {
		return reportError(err)
	}
	switch {
	case result.Branch != "":
		fmt.Println(successMsg("merge finalized on " + result.Branch))
	default:
		fmt.Println(styleDim.Render("nothing to finalize"))
	}
	return 0
}

func runRemove(eng *Engine, args []string) int {
	deleteRemote := false
	skipConfirm := false
	branches := []string{}
	for _, a := range args {
		switch a {
		case "--remote":
			deleteRemote = true
		case "--yes":
			skipConfirm = true
		default:
			if strings.HasPrefix(a, "-") {
				fmt.Fprintln(os.Stderr, errorMsg("unknown option for rm: "+a))
				return 1
			}
			branches = append(branches, a)
		}
	}
	if len(branches) == 0 {
		fmt.Fprintln(os.Stderr, errorMsg("usage: bough rm <branch>... [--remote] [--yes]"))
		return 1
	}

	repo, cwd, err := requireRepoHere(eng)
	if err != nil {
		return reportError(err)
	}
	deleteRemote = deleteRemote || eng.cfg.DeleteRemote

	// The branch under our feet is never a candidate.
	if current := eng.CurrentBranch(cwd); current != "" {
		for _, branch := range branches {
			if branch == current {
				fmt.Fprintln(os.Stderr, errorMsg("refusing to remove the current branch: "+current))
				return 1
			}
		}
	}

	if !skipConfirm {
		ok, err := eng.ConfirmRemoval(repo, branches, deleteRemote)
		if err != nil {
			return reportError(err)
		}
		if !ok {
			return 0
		}
	}

	report, err := eng.RemoveBranches(repo, branches, deleteRemote)
	if err != nil {
		return reportError(err)
	}
	for _, branch := range report.Succeeded {
		fmt.Println(successMsg("removed " + branch))
	}
	for _, failure := range report.Failed {
		fmt.Fprintln(os.Stderr, errorMsg(fmt.Sprintf("%s: %s", failure.Branch, failure.Reason)))
	}
	if len(report.Failed) > 0 {
		return 1
	}
	return 0
}

func runList(eng *Engine, args []string) int {
	jsonOut := false
	for _, a := range args {
		switch a {
		case "--json":
			jsonOut = true
		default:
			fmt.Fprintln(os.Stderr, errorMsg("usage: bough list [--json]"))
			return 1
		}
	}

	repo, cwd, err := requireRepoHere(eng)
	if err != nil {
		return reportError(err)
	}
	rows, err := eng.listRows(repo, cwd)
	if err != nil {
		return reportError(err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return reportError(err)
		}
		return 0
	}

	fmt.Println(styleTableHead.Render(fmt.Sprintf("%-3s %-30s %-7s %-11s %s", "CUR", "BRANCH", "STATUS", "AHEAD/BEH", "PATH")))
	for _, row := range rows {
		cur := ""
		if row.Current {
			cur = "*"
		}
		status := styleClean.Render("clean")
		if row.Dirty {
			status = styleDirty.Render("dirty")
		}
		counts := styleDim.Render(fmt.Sprintf("+%d/-%d", row.Ahead, row.Behind))
		fmt.Printf("%-3s %-30s %-16s %-20s %s\n",
			cur, styleBranch.Render(truncateCell(row.Branch, 30)), status, counts, stylePath.Render(row.Path))
	}
	return 0
}

func runState(eng *Engine, args []string) int {
	dir := "."
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, errorMsg("usage: bough state [dir]"))
		return 1
	}
	if len(args) == 1 {
		dir = args[0]
	}
	dir = absPath(dir)
	state, conflicts, err := eng.SyncStateFor(dir)
	if err != nil {
		return reportError(err)
	}
	fmt.Println(state.String())
	for _, file := range conflicts {
		fmt.Println("  " + file)
	}
	if branch := eng.CurrentBranch(dir); branch != "" && eng.UpstreamExists(dir, branch) {
		commits, err := eng.UnpushedCommits(dir, eng.remote()+"/"+branch)
		if err == nil && len(commits) > 0 {
			fmt.Println(styleDim.Render(fmt.Sprintf("%d commit(s) not on %s/%s:", len(commits), eng.remote(), branch)))
			for _, line := range commits {
				fmt.Println("  " + line)
			}
		}
	}
	return 0
}

func runDoctor(eng *Engine, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, errorMsg("usage: bough doctor"))
		return 1
	}
	report := eng.Doctor()
	for _, line := range report.Lines {
		fmt.Println(line)
	}
	return report.ExitCode
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `bough - branch-per-worktree workflows for git

Usage:
  bough                       # interactive worktree list
  bough ui
  bough new [--local|--remote] [--base <ref>] [name]
  bough switch
  bough sync [branch]
  bough resync [dir]
  bough rm <branch>... [--remote] [--yes]
  bough list [--json]
  bough state [dir]
  bough doctor
  bough version
  bough help

Examples:
  bough new                   # branch off the default integration branch
  bough new --local           # branch off a local branch you pick
  bough new --remote          # clone a remote branch into a worktree
  bough sync feature/checkout
  bough resync ../myrepo-worktrees/feature-checkout
  bough rm feature/checkout --remote
`)
}
