package scorecard

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/occupancy-map/internal/model"
	"github.com/sells-group/occupancy-map/internal/tabular"
)

const header = "ZIP_CODE,TARGET_SCORE_2024,INVESTMENT_SCORE,FORECAST_SCORE_2030," +
	"FORECAST_GROWTH_PCT_TO_2030,MEDIAN_INCOME_25_44,VACANCY_RATE_PCT\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "builder_scorecard.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0o644))
	return path
}

func TestParse(t *testing.T) {
	tbl, err := tabular.Parse(header +
		"601.0,72.5,60,80,4.2,51000,7.5\n" +
		",1,1,1,1,1,1\n" +
		"2139,-3,abc,,1.5,88000,2\n")
	require.NoError(t, err)

	m := Parse(tbl)
	require.Len(t, m, 2)

	assert.Equal(t, Entry{
		TargetScore2024:   72.5,
		InvestmentScore:   60,
		ForecastScore2030: 80,
		ForecastGrowthPct: 4.2,
		MedianIncome2544:  51000,
		VacancyRatePct:    7.5,
	}, m["00601"])

	e := m["02139"]
	assert.Equal(t, 0.0, e.TargetScore2024, "negative clamps to zero")
	assert.Equal(t, 0.0, e.InvestmentScore, "unparsable is zero")
	assert.Equal(t, 0.0, e.ForecastScore2030, "missing is zero")
	assert.Equal(t, 1.5, e.ForecastGrowthPct)
}

func TestParse_LaterRowWins(t *testing.T) {
	tbl, err := tabular.Parse(header +
		"00601,10,0,0,0,0,0\n" +
		"601,20,0,0,0,0,0\n")
	require.NoError(t, err)

	m := Parse(tbl)
	require.Len(t, m, 1)
	assert.Equal(t, 20.0, m["00601"].TargetScore2024)
}

func TestParse_MissingValueColumns(t *testing.T) {
	tbl, err := tabular.Parse("ZIP_CODE\n00601\n")
	require.NoError(t, err)

	m := Parse(tbl)
	assert.Equal(t, Entry{}, m["00601"])
}

func TestLoader_Memoizes(t *testing.T) {
	path := writeCSV(t, "00601,72.5,0,0,0,0,0\n")
	l := NewLoader(path)
	assert.Equal(t, path, l.Path())

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, first, "00601")

	// The second call must not touch the file.
	require.NoError(t, os.Remove(path))

	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoader_ConcurrentCallers(t *testing.T) {
	path := writeCSV(t, "00601,1,2,3,4,5,6\n00602,6,5,4,3,2,1\n")
	l := NewLoader(path)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := l.Load(context.Background())
			assert.NoError(t, err)
			assert.Len(t, m, 2)
		}()
	}
	wg.Wait()
}

func TestLoader_MissingFileIsRetried(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "builder_scorecard.csv")
	l := NewLoader(path)

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsSourceUnavailable(err))

	require.NoError(t, os.WriteFile(path, []byte(header+"00601,1,0,0,0,0,0\n"), 0o644))

	m, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, m, 1)
}
