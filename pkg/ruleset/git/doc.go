// Package git serves rule sets from a git repository.
//
// A Repository is a local clone of the configured branch. A Watcher syncs
// it once at startup and then polls for new commits, reloading the rule
// manager only when a .yaml or .yml file changed:
//
//	repo, err := git.NewRepository(cfg.Rules.Git)
//	if err != nil {
//		return err
//	}
//	w := git.NewWatcher(repo, manager, cfg.Rules.Git.PollInterval, logger)
//	if err := w.Sync(ctx); err != nil {
//		return err
//	}
//	go w.Run(ctx)
//
// Commits with broken rules are not applied. The manager keeps the rules of
// the last good commit, and the failure is logged and reported by
// Watcher.LastError.
package git
