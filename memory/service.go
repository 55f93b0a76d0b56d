package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/drive"
	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
)

type service struct {
	drive  drive.Service
	conf   *config.MemoryConfig
	logger *mylog.Logger

	mtx               sync.Mutex
	memoryFolderID    string
	summariesFolderID string

	now func() time.Time
}

var _ Service = (*service)(nil)

func NewService(driveSvc drive.Service, conf *config.MemoryConfig, logger *mylog.Logger) Service {
	return &service{
		drive:  driveSvc,
		conf:   conf,
		logger: logger,
		now:    time.Now,
	}
}

// ensureFolders lazily bootstraps the memory folder tree. Folder IDs are
// memoized per service instance.
func (s *service) ensureFolders(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.memoryFolderID != "" {
		return nil
	}

	memoryID, err := s.drive.EnsureFolder(ctx, s.conf.FolderName, "")
	if err != nil {
		return errors.Wrapf(err, "failed to ensure memory folder")
	}
	summariesID, err := s.drive.EnsureFolder(ctx, s.conf.SummariesFolderName, memoryID)
	if err != nil {
		return errors.Wrapf(err, "failed to ensure summaries folder")
	}

	s.memoryFolderID = memoryID
	s.summariesFolderID = summariesID

	return nil
}

func (s *service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *service) LoadProfile(ctx context.Context) (*Profile, error) {
	if err := s.ensureFolders(ctx); err != nil {
		return nil, err
	}

	fid, err := s.drive.FindFile(ctx, profileFile, s.memoryFolderID)
	if err != nil {
		return nil, err
	}
	if fid != "" {
		var profile Profile
		if err := s.drive.ReadJSON(ctx, fid, &profile); err == nil {
			if profile.Preferences == nil {
				profile.Preferences = map[string]any{}
			}
			if profile.FrequentlyUsedFolders == nil {
				profile.FrequentlyUsedFolders = map[string]int{}
			}
			return &profile, nil
		} else {
			s.logger.Warn("corrupt profile, returning defaults", "file", profileFile, "err", err)
		}
	}

	return &Profile{
		CreatedAt:             s.timestamp(),
		Preferences:           map[string]any{},
		LearnedPatterns:       []Pattern{},
		FrequentlyUsedFolders: map[string]int{},
		TopicsOfInterest:      []string{},
	}, nil
}

func (s *service) SaveProfile(ctx context.Context, profile *Profile) error {
	if err := s.ensureFolders(ctx); err != nil {
		return err
	}

	profile.UpdatedAt = s.timestamp()

	fid, err := s.drive.FindFile(ctx, profileFile, s.memoryFolderID)
	if err != nil {
		return err
	}
	if _, err := s.drive.WriteJSON(ctx, profileFile, s.memoryFolderID, fid, profile); err != nil {
		return errors.Wrapf(err, "failed to save profile")
	}

	return nil
}

func (s *service) UpdateLearnedPatterns(ctx context.Context, command string, toolsUsed, foldersTouched, topics []string) error {
	profile, err := s.LoadProfile(ctx)
	if err != nil {
		return err
	}

	profile.InteractionCount++

	for _, folder := range foldersTouched {
		profile.FrequentlyUsedFolders[folder]++
	}

	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || lo.Contains(profile.TopicsOfInterest, t) {
			continue
		}
		profile.TopicsOfInterest = append(profile.TopicsOfInterest, t)
	}
	profile.TopicsOfInterest = tail(profile.TopicsOfInterest, 50)

	profile.LearnedPatterns = append(profile.LearnedPatterns, Pattern{
		CommandType: ClassifyCommand(command),
		Tools:       toolsUsed,
		Timestamp:   s.timestamp(),
	})
	profile.LearnedPatterns = tail(profile.LearnedPatterns, 30)

	return s.SaveProfile(ctx, profile)
}

func (s *service) LoadConversationLog(ctx context.Context) ([]LogEntry, error) {
	if err := s.ensureFolders(ctx); err != nil {
		return nil, err
	}

	fid, err := s.drive.FindFile(ctx, logFile, s.memoryFolderID)
	if err != nil {
		return nil, err
	}
	if fid == "" {
		return []LogEntry{}, nil
	}

	var log []LogEntry
	if err := s.drive.ReadJSON(ctx, fid, &log); err != nil {
		s.logger.Warn("corrupt conversation log, starting fresh", "file", logFile, "err", err)
		return []LogEntry{}, nil
	}

	return log, nil
}

func (s *service) AppendConversation(ctx context.Context, entry LogEntry) error {
	log, err := s.LoadConversationLog(ctx)
	if err != nil {
		return err
	}

	entry.Timestamp = s.timestamp()
	log = append(log, entry)

	if len(log) > s.conf.MaxLogEntries {
		// Condense the oldest batch into the archive instead of
		// silently dropping it. The archive write happens before the
		// trimmed log write so a crash in between loses nothing.
		overflow := log[:s.conf.ConsolidationBatch]
		log = log[s.conf.ConsolidationBatch:]
		if err := s.consolidate(ctx, overflow); err != nil {
			return err
		}
	}

	fid, err := s.drive.FindFile(ctx, logFile, s.memoryFolderID)
	if err != nil {
		return err
	}
	if _, err := s.drive.WriteJSON(ctx, logFile, s.memoryFolderID, fid, log); err != nil {
		return errors.Wrapf(err, "failed to save conversation log")
	}

	return nil
}

func (s *service) loadConsolidated(ctx context.Context) ([]Block, error) {
	if err := s.ensureFolders(ctx); err != nil {
		return nil, err
	}

	fid, err := s.drive.FindFile(ctx, consolidatedFile, s.memoryFolderID)
	if err != nil {
		return nil, err
	}
	if fid == "" {
		return []Block{}, nil
	}

	var archive []Block
	if err := s.drive.ReadJSON(ctx, fid, &archive); err != nil {
		s.logger.Warn("corrupt consolidated memory, starting fresh", "file", consolidatedFile, "err", err)
		return []Block{}, nil
	}

	return archive, nil
}

// consolidate compresses a batch of log entries into a single block.
// This runs without an LLM call; the LLM-based digest happens via
// DeepConsolidate.
func (s *service) consolidate(ctx context.Context, entries []LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var (
		commands []string
		tools    []string
		topics   []string
	)
	for _, e := range entries {
		commands = append(commands, e.Command)
		tools = append(tools, e.ToolsUsed...)
		topics = append(topics, e.Topics...)
	}
	tools = lo.Uniq(tools)
	sort.Strings(tools)
	topics = lo.Uniq(topics)
	sort.Strings(topics)

	samples := commands
	if len(samples) > 5 {
		samples = append(append([]string{}, samples[:5]...), "...")
	}

	block := Block{
		PeriodStart:     entries[0].Timestamp,
		PeriodEnd:       entries[len(entries)-1].Timestamp,
		EntryCount:      len(entries),
		CommandSamples:  samples,
		AllToolsUsed:    tools,
		TopicsMentioned: topics,
		CondensedAt:     s.timestamp(),
	}

	archive, err := s.loadConsolidated(ctx)
	if err != nil {
		return err
	}
	archive = append(archive, block)
	archive = tail(archive, s.conf.MaxConsolidatedBlocks)

	fid, err := s.drive.FindFile(ctx, consolidatedFile, s.memoryFolderID)
	if err != nil {
		return err
	}
	if _, err := s.drive.WriteJSON(ctx, consolidatedFile, s.memoryFolderID, fid, archive); err != nil {
		return errors.Wrapf(err, "failed to save consolidated memory")
	}

	s.logger.Info("consolidated entries into archive", "entries", len(entries), "blocks", len(archive))

	return nil
}

func (s *service) DeepConsolidate(ctx context.Context, summarize SummarizeFunc) (string, error) {
	archive, err := s.loadConsolidated(ctx)
	if err != nil {
		return "", err
	}
	if len(archive) == 0 {
		return "No archived memory to consolidate.", nil
	}

	blob, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}

	summary, err := summarize(ctx, fmt.Sprintf(
		"Summarise the following archived agent interaction history. "+
			"Highlight: recurring user goals, preferred workflows, "+
			"frequently used folders and topics, and any notable patterns.\n\n%s",
		string(blob),
	))
	if err != nil {
		return "", errors.Wrapf(err, "failed to summarize archive")
	}

	fid, err := s.drive.FindFile(ctx, deepSummaryFile, s.memoryFolderID)
	if err != nil {
		return "", err
	}
	if _, err := s.drive.WriteJSON(ctx, deepSummaryFile, s.memoryFolderID, fid, DeepSummary{
		Summary:      summary,
		SourceBlocks: len(archive),
		GeneratedAt:  s.timestamp(),
	}); err != nil {
		return "", errors.Wrapf(err, "failed to save deep summary")
	}

	return summary, nil
}

func (s *service) SaveSummary(ctx context.Context, topic, summary string) (string, error) {
	if err := s.ensureFolders(ctx); err != nil {
		return "", err
	}

	name := summaryFileName(topic)
	data := TopicSummary{
		Topic:     topic,
		Summary:   summary,
		CreatedAt: s.timestamp(),
	}

	fid, err := s.drive.FindFile(ctx, name, s.summariesFolderID)
	if err != nil {
		return "", err
	}
	fid, err = s.drive.WriteJSON(ctx, name, s.summariesFolderID, fid, data)
	if err != nil {
		return "", errors.Wrapf(err, "failed to save summary for %q", topic)
	}

	s.logger.Info("saved research summary", "topic", topic, "file", fid)

	return fid, nil
}

func (s *service) SearchSummaries(ctx context.Context, keyword string) ([]TopicSummary, error) {
	if err := s.ensureFolders(ctx); err != nil {
		return nil, err
	}

	files, err := s.drive.ListFiles(ctx, s.summariesFolderID, 0)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	var results []TopicSummary
	for _, f := range files {
		if !strings.Contains(strings.ToLower(f.Name), needle) {
			continue
		}
		var ts TopicSummary
		if err := s.drive.ReadJSON(ctx, f.ID, &ts); err != nil {
			continue
		}
		results = append(results, ts)
		if len(results) >= 10 {
			break
		}
	}

	return results, nil
}

// summaryFileName derives a filesystem-safe name from a topic.
func summaryFileName(topic string) string {
	name := strings.ReplaceAll(strings.ToLower(topic), " ", "_")
	if runes := []rune(name); len(runes) > 60 {
		name = string(runes[:60])
	}
	return name + ".json"
}

// tail returns the last n elements of s, sharing the backing array.
func tail[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
