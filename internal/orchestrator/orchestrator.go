// Package orchestrator sequences a thanks run: it lists the tracked items,
// matches them against repository history, hands matched items to the
// composer and advances them through the store.
//
// Items are processed one at a time in listing order. The first fatal error
// aborts the run; items already transitioned stay terminal and the rest stay
// active, so an interrupted run can simply be repeated.
package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/Iron-Ham/thanks/internal/compose"
	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/logging"
	"github.com/Iron-Ham/thanks/internal/match"
	"github.com/Iron-Ham/thanks/internal/patchid"
	"github.com/Iron-Ham/thanks/internal/tracking"
)

// Repository is what a run needs from the version-control backend.
type Repository interface {
	match.PullRequestSource
	match.IndexSource
	ListBranches(ctx context.Context) ([]string, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Options configures an Orchestrator.
type Options struct {
	Store  *tracking.Store
	Repo   Repository
	Hasher patchid.Hasher
	// Composer is only needed by AutoMatch and Send.
	Composer *compose.Composer
	Logger   *logging.Logger

	// UserEmail identifies the local maintainer: merges must be authored by
	// it and series commits committed by it.
	UserEmail string
	OutputDir string
	// StaleGlob matches leftover artifacts in OutputDir.
	StaleGlob string
}

// Orchestrator runs the list, auto, send and discard operations.
type Orchestrator struct {
	store     *tracking.Store
	repo      Repository
	hasher    patchid.Hasher
	composer  *compose.Composer
	logger    *logging.Logger
	userEmail string
	outputDir string
	staleGlob string
}

// New validates opts and creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.NewValidationError("orchestrator requires a store")
	}
	if opts.UserEmail == "" {
		return nil, errors.NewValidationError("please set user.email to use thanks").
			WithField("user.email").WithCause(errors.ErrMissingUserEmail)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.StaleGlob == "" {
		opts.StaleGlob = "*" + compose.ArtifactExt
	}

	return &Orchestrator{
		store:     opts.Store,
		repo:      opts.Repo,
		hasher:    opts.Hasher,
		composer:  opts.Composer,
		logger:    opts.Logger,
		userEmail: opts.UserEmail,
		outputDir: opts.OutputDir,
		staleGlob: opts.StaleGlob,
	}, nil
}

// OutputDir returns the directory artifacts are written to.
func (o *Orchestrator) OutputDir() string {
	return o.outputDir
}

// ResolveBranch returns requested if it names a local branch, or the current
// branch when requested is empty.
func (o *Orchestrator) ResolveBranch(ctx context.Context, requested string) (string, error) {
	if o.repo == nil {
		return "", errors.NewValidationError("no repository configured")
	}
	if requested == "" {
		branch, err := o.repo.CurrentBranch(ctx)
		if err != nil {
			return "", fmt.Errorf("not able to get current branch: %w", err)
		}
		return branch, nil
	}

	branches, err := o.repo.ListBranches(ctx)
	if err != nil {
		return "", err
	}
	if !slices.Contains(branches, requested) {
		return "", errors.NewNotFoundError("branch", requested).WithCause(errors.ErrBranchNotFound)
	}
	return requested, nil
}

// Tracked returns the active items in listing order. An item's 1-based
// position in this list is its selection number.
func (o *Orchestrator) Tracked(ctx context.Context) ([]*tracking.Item, error) {
	items, err := o.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return tracking.Active(items), nil
}

// AutoMatch looks for every active item on branch and acknowledges the ones
// that were integrated. Series commits are searched within the since window.
func (o *Orchestrator) AutoMatch(ctx context.Context, branch, since string) (*Report, error) {
	log := o.logger.WithCommand("auto").WithBranch(branch)
	report := &Report{Branch: branch}

	if o.repo == nil || o.hasher == nil {
		return report, errors.NewValidationError("auto-matching requires a repository and a patch hasher")
	}
	if err := o.checkStale(); err != nil {
		return report, err
	}

	items, err := o.Tracked(ctx)
	if err != nil {
		return report, err
	}
	report.Tracked = len(items)
	if len(items) == 0 {
		return report, nil
	}
	log.Info("auto-matching tracked items", "items", len(items), "since", since)

	cache := match.NewIndexCache(o.repo, o.hasher, log)
	locator := match.NewLocator(o.repo, cache, log)

	var located []*tracking.Item
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := o.locate(ctx, locator, item, branch, since)
		if err != nil {
			return report, err
		}
		if !res.Matched() {
			log.WithItem(item.StorageKey).Debug("not located", "status", res.Status.String(), "reason", string(res.Reason))
			report.Skipped = append(report.Skipped, Skip{Item: item, Status: res.Status, Reason: res.Reason, Missing: res.Missing})
			continue
		}

		o.store.Resolve(item, resolution(branch, res))
		located = append(located, item)
		log.WithItem(item.StorageKey).Info("located", "subject", item.Subject)
	}
	report.Located = located
	report.IndexBuilds = cache.Builds()

	if len(located) == 0 {
		return report, nil
	}
	return report, o.deliver(ctx, located, report)
}

func (o *Orchestrator) locate(ctx context.Context, locator *match.Locator, item *tracking.Item, branch, since string) (match.Result, error) {
	if item.Kind == tracking.KindPullRequest {
		return locator.LocatePullRequest(ctx, item.PRCommitID, branch, o.userEmail)
	}

	patches := make([]match.Patch, len(item.Patches))
	for i, p := range item.Patches {
		patches[i] = match.Patch{Label: p.Label, Identity: p.Identity}
	}
	return locator.LocateSeries(ctx, patches, branch, o.userEmail, since)
}

func resolution(branch string, res match.Result) tracking.Resolution {
	r := tracking.Resolution{
		Branch:      branch,
		MergeCommit: res.MergeCommit,
		MergedBy:    res.MergedBy,
	}
	for _, c := range res.Commits {
		r.Commits = append(r.Commits, tracking.ResolvedCommit{CommitID: c.CommitID, Subject: c.Subject})
	}
	return r
}

// Send writes acknowledgments for the selected active items without
// matching them, then marks them sent.
func (o *Orchestrator) Send(ctx context.Context, selection []string) (*Report, error) {
	report := &Report{}

	items, err := o.Tracked(ctx)
	if err != nil {
		return report, err
	}
	report.Tracked = len(items)
	if len(items) == 0 {
		return report, nil
	}

	selected, err := Select(items, selection, false)
	if err != nil {
		return report, err
	}
	if err := o.checkStale(); err != nil {
		return report, err
	}
	return report, o.deliver(ctx, selected, report)
}

// Discard marks the selected active items discarded. The selection may be
// "all".
func (o *Orchestrator) Discard(ctx context.Context, selection []string) (*Report, error) {
	log := o.logger.WithCommand("discard")
	report := &Report{}

	items, err := o.Tracked(ctx)
	if err != nil {
		return report, err
	}
	report.Tracked = len(items)
	if len(items) == 0 {
		return report, nil
	}

	selected, err := Select(items, selection, true)
	if err != nil {
		return report, err
	}

	if err := o.checkTransitions(selected, tracking.StateDiscarded); err != nil {
		return report, err
	}

	log.Info("discarding tracked items", "items", len(selected))
	for _, item := range selected {
		if err := o.store.Transition(ctx, item, tracking.StateDiscarded); err != nil {
			return report, err
		}
		report.Discarded = append(report.Discarded, item)
	}
	return report, nil
}

// deliver composes every reply and checks every transition before writing
// any artifact. Each item is marked sent right after its artifact lands.
func (o *Orchestrator) deliver(ctx context.Context, items []*tracking.Item, report *Report) error {
	if o.composer == nil {
		return errors.NewValidationError("no composer configured")
	}

	msgs := make([]*compose.Message, len(items))
	for i, item := range items {
		msg, err := o.composer.Compose(item)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := o.checkTransitions(items, tracking.StateSent); err != nil {
		return err
	}

	o.logger.Info("generating acknowledgments", "count", len(items), "dir", o.outputDir)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, err := compose.WriteArtifact(o.outputDir, msgs[i])
		if err != nil {
			return err
		}
		report.Written = append(report.Written, path)

		if err := o.store.Transition(ctx, item, tracking.StateSent); err != nil {
			return err
		}
		report.Sent = append(report.Sent, item)
	}
	return nil
}

// checkTransitions fails if any item could not be moved to state, such as
// an active record whose terminal copy already exists.
func (o *Orchestrator) checkTransitions(items []*tracking.Item, state tracking.State) error {
	for _, item := range items {
		if err := o.store.CanTransition(item, state); err != nil {
			o.logger.WithItem(item.StorageKey).Error("tracked item cannot be transitioned", "state", state.String(), "error", err)
			return err
		}
	}
	return nil
}

// checkStale refuses to run while unsent artifacts are waiting in the output
// directory.
func (o *Orchestrator) checkStale() error {
	stale, err := compose.StaleArtifacts(o.outputDir, o.staleGlob)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		o.logger.Warn("found unsent acknowledgments", "dir", o.outputDir, "files", stale)
		return errors.NewArtifactError("please send them first (or delete if already sent)", errors.ErrStaleArtifacts).
			WithDir(o.outputDir).WithFiles(stale)
	}
	return nil
}
