package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/utcp/internal/codec"
	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode a document into a UTCP envelope",
		Long: "Encode a document. Writes <file>.utcp next to it (or -o), plus numbered part\n" +
			"files when --split is set and the envelope exceeds the token budget.",
		Args: cobra.ExactArgs(1),
		Run:  runEncode,
	}

	cmd.Flags().StringP("output", "o", "", "Envelope path (default: <file>.utcp)")
	cmd.Flags().Int("min-occurrences", 0, "Minimum occurrences for a dictionary term (default from config: 3)")
	cmd.Flags().Int("min-term-length", 0, "Minimum dictionary term length")
	cmd.Flags().Bool("preserve-verbatim", false, "Wrap fenced code blocks in <VERB> tags")
	cmd.Flags().Bool("parallel", false, "Count terms in parallel for large inputs")
	cmd.Flags().Int("parallel-threshold", 0, "Input size above which parallel counting kicks in")
	cmd.Flags().Bool("split", false, "Split envelopes larger than the token budget into parts")
	cmd.Flags().Int("max-tokens", 0, "Token budget per part")
	cmd.Flags().Int("chars-per-token", 0, "Characters per estimated token")
	cmd.Flags().Int("light-threshold", 0, "Documents smaller than this many bytes use the light envelope")
	cmd.Flags().Bool("no-record", false, "Do not record this session in the catalog")

	RootCmd.AddCommand(cmd)
}

type encodeSummary struct {
	Path         string   `json:"path"`
	Output       string   `json:"output"`
	Format       string   `json:"format"`
	Size         int      `json:"size"`
	EnvelopeSize int      `json:"envelope_size"`
	Ratio        float64  `json:"ratio"`
	DictEntries  int      `json:"dict_entries"`
	Refs         int      `json:"refs"`
	Parts        []string `json:"parts,omitempty"`
	ID           string   `json:"id,omitempty"`
	Previous     []string `json:"previous,omitempty"`
}

func runEncode(cmd *cobra.Command, args []string) {
	path := args[0]
	out, _ := cmd.Flags().GetString("output")
	noRecord, _ := cmd.Flags().GetBool("no-record")
	if out == "" {
		out = path + meta.EnvelopeExt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		exitErr("read input", err)
	}
	content := string(data)

	log := newLogger()
	opts := encodeOptions(cmd)
	opts.Logger = log

	res, err := codec.Encode(cmd.Context(), content, path, opts)
	if err != nil {
		exitErr("encode", err)
	}

	sum := encodeSummary{
		Path:         path,
		Output:       out,
		Format:       string(res.Format()),
		Size:         len(content),
		EnvelopeSize: len(res.Text),
		Ratio:        res.Ratio,
		DictEntries:  res.DictEntries,
		Refs:         res.RefCount,
	}

	if res.Index != nil {
		dir := filepath.Dir(out)
		for i, part := range res.Parts {
			name := filepath.Join(dir, res.Index.Parts[i])
			if err := os.WriteFile(name, []byte(part.String()), 0o644); err != nil {
				exitErr("write part", err)
			}
			sum.Parts = append(sum.Parts, name)
		}
		if err := os.WriteFile(out, []byte(res.Index.String()), 0o644); err != nil {
			exitErr("write index", err)
		}
	} else if err := os.WriteFile(out, []byte(res.Text), 0o644); err != nil {
		exitErr("write envelope", err)
	}

	if getConfig().Catalog.Record && !noRecord {
		id, previous, err := record(cmd, path, content, res)
		if err != nil {
			log.Warn("catalog record failed", "db", getDBPath(), "err", err)
		}
		sum.ID, sum.Previous = id, previous
	}

	if jsonOutput() {
		printJSON(sum)
		return
	}
	printEncodeSummary(sum)
}

// encodeOptions starts from the config file and applies explicitly set flags.
func encodeOptions(cmd *cobra.Command) codec.Options {
	opts := getConfig().CodecOptions()
	flags := cmd.Flags()

	ints := []struct {
		name   string
		target *int
	}{
		{"min-occurrences", &opts.MinOccurrences},
		{"min-term-length", &opts.MinTermLength},
		{"parallel-threshold", &opts.ParallelThreshold},
		{"max-tokens", &opts.MaxTokensPerFile},
		{"chars-per-token", &opts.CharsPerToken},
		{"light-threshold", &opts.LightThreshold},
	}
	for _, f := range ints {
		if flags.Changed(f.name) {
			*f.target, _ = flags.GetInt(f.name)
		}
	}

	bools := []struct {
		name   string
		target *bool
	}{
		{"preserve-verbatim", &opts.PreserveVerbatim},
		{"parallel", &opts.UseParallelCounting},
		{"split", &opts.SplitByTokenBudget},
	}
	for _, f := range bools {
		if flags.Changed(f.name) {
			*f.target, _ = flags.GetBool(f.name)
		}
	}
	return opts
}

// record stores the session and returns its id along with the ids of earlier
// sessions over identical content.
func record(cmd *cobra.Command, path, content string, res *codec.Result) (string, []string, error) {
	s, err := openStore()
	if err != nil {
		return "", nil, fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	earlier, err := s.FindByContent(ctx, content)
	if err != nil {
		return "", nil, fmt.Errorf("find by content: %w", err)
	}
	var previous []string
	for _, r := range earlier {
		previous = append(previous, r.ID)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	rec, err := s.Put(ctx, store.PutParams{
		Path:        abs,
		Content:     content,
		Format:      string(res.Format()),
		Meta:        res.Meta,
		Ratio:       res.Ratio,
		DictEntries: res.DictEntries,
		RefCount:    res.RefCount,
		Body:        res.Text,
	})
	if err != nil {
		return "", previous, fmt.Errorf("put: %w", err)
	}
	return rec.ID, previous, nil
}

func printEncodeSummary(s encodeSummary) {
	fmt.Println(headStyle.Render("Encoded " + s.Path))
	fmt.Println(field("format", s.Format))
	fmt.Println(field("original", bytesOf(s.Size)))
	fmt.Println(field("envelope", bytesOf(s.EnvelopeSize)))
	fmt.Println(field("ratio", ratioOf(s.Ratio)))
	if s.DictEntries > 0 || s.Refs > 0 {
		fmt.Println(field("dictionary", fmt.Sprintf("%d entries, %d refs", s.DictEntries, s.Refs)))
	}
	fmt.Println(field("output", s.Output))
	for _, p := range s.Parts {
		fmt.Println(field("part", p))
	}
	if s.ID != "" {
		fmt.Println(field("catalog id", s.ID))
	}
	if len(s.Previous) > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("same content encoded %d time(s) before, latest %s", len(s.Previous), s.Previous[0])))
	}
}
