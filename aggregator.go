package main

import (
	"log"
	"time"
)

// articleExtractor pulls normalized body text from one article URL.
type articleExtractor interface {
	Extract(url, selector string) (string, error)
}

// NewsAggregator orchestrates the fetch-extract-summarize pipeline across
// all configured sources. Sources are processed sequentially in configured
// order; a failing source contributes nothing but never aborts the run.
type NewsAggregator struct {
	settings  *Settings
	extractor articleExtractor
	agents    *AgentManager
	discover  func(SourceDescriptor) ([]string, error)
}

// NewNewsAggregator wires the pipeline over the given LLM backend.
func NewNewsAggregator(settings *Settings, llm TextCompleter) *NewsAggregator {
	return &NewsAggregator{
		settings:  settings,
		extractor: NewArticleExtractor(),
		agents:    NewAgentManager(llm, settings),
		discover:  fetchCandidates,
	}
}

// Run processes every configured source and returns the assembled records.
// The result is never nil; "no news" is an empty list.
func (na *NewsAggregator) Run() []NewsRecord {
	records := make([]NewsRecord, 0)
	for _, src := range na.settings.Sources {
		records = append(records, na.runSource(src)...)
	}
	return records
}

// RunCity answers a single-city query through the LLM alone, parsing its
// loosely structured reply. Unlike the scrape pipeline, an LLM failure here
// surfaces to the caller: there is nothing to degrade to.
func (na *NewsAggregator) RunCity(city string) ([]NewsRecord, error) {
	raw, err := na.agents.QueryCityNews(city)
	if err != nil {
		return nil, err
	}
	if isNoNewsReply(raw) {
		return []NewsRecord{}, nil
	}
	return freeformNews(raw, city), nil
}

// runSource walks a source's candidates until Cap articles have been
// successfully extracted. Extraction failures skip the candidate without
// consuming the cap, so a source may contribute fewer than Cap records.
func (na *NewsAggregator) runSource(src SourceDescriptor) []NewsRecord {
	log.Printf("→ Discovering candidates from %s", src.Name)
	candidates, err := na.discover(src)
	if err != nil {
		log.Printf("✗ Source %s unavailable: %v", src.Name, err)
		return nil
	}
	log.Printf("  %s: %d candidates", src.Name, len(candidates))

	records := make([]NewsRecord, 0, src.Cap)
	for _, url := range candidates {
		if len(records) >= src.Cap {
			break
		}
		text, err := na.extractor.Extract(url, src.ArticleSelector)
		if err != nil {
			log.Printf("  skipping %s: %v", url, err)
			continue
		}
		records = append(records, na.buildRecord(url, text))
	}

	log.Printf("✓ %s contributed %d records", src.Name, len(records))
	return records
}

// buildRecord assembles one NewsRecord from extracted text. Classification
// failures degrade to the documented defaults at this call site; they never
// propagate as errors, so every extracted article yields a complete record.
func (na *NewsAggregator) buildRecord(url, text string) NewsRecord {
	summary, err := na.agents.Summarize(text)
	if err != nil {
		log.Printf("  summary failed for %s: %v", url, err)
		summary = "Unable to generate summary due to missing content"
	}

	newsType, err := na.agents.ClassifyType(text)
	if err != nil {
		log.Printf("  classification failed for %s: %v", url, err)
		newsType = unknownType
	}

	cities, localities, err := na.agents.ExtractLocations(text)
	if err != nil {
		log.Printf("  location extraction failed for %s: %v", url, err)
		cities = []string{unknownPlace}
		localities = []string{unknownPlace}
	}

	return NewsRecord{
		NewsURL:  url,
		Summary:  summary,
		City:     cities,
		Locality: localities,
		NewsType: newsType,
		Date:     time.Now().Format(dateLayout),
	}
}
