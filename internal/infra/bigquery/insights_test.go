package bigquery

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONValue(t *testing.T) {
	v, err := JSONValue(nil)
	require.NoError(t, err)
	assert.False(t, v.Valid)

	var empty map[string]interface{}
	v, err = JSONValue(empty)
	require.NoError(t, err)
	assert.False(t, v.Valid)

	v, err = JSONValue(map[string]interface{}{"chart_type": "bar"})
	require.NoError(t, err)
	assert.Equal(t, bigquery.NullJSON{JSONVal: `{"chart_type":"bar"}`, Valid: true}, v)

	_, err = JSONValue(map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestNullString(t *testing.T) {
	assert.False(t, NullString("").Valid)
	assert.Equal(t, bigquery.NullString{StringVal: "this_month", Valid: true}, NullString("this_month"))
}

func TestUserPartitionKey(t *testing.T) {
	assert.Equal(t, "USER#u-42", UserPartitionKey("u-42"))
}

func TestGoalRowToDomain(t *testing.T) {
	row := GoalRow{
		GoalID:                "g1",
		GoalName:              "Emergency Fund",
		GoalType:              "savings_target",
		UserPriority:          "high",
		Intent:                "safety net",
		CurrentAmount:         bigquery.NullFloat64{Float64: 1500, Valid: true},
		PercentageComplete:    bigquery.NullFloat64{Float64: 30, Valid: true},
		LatestStatus:          bigquery.NullString{StringVal: "on_track", Valid: true},
		LatestInsights:        []string{"a", "b", "c"},
		LatestRecommendations: []string{"r1"},
	}

	g := row.ToDomain()
	assert.Equal(t, "Emergency Fund", g.Name)
	assert.Equal(t, "high", g.Priority)
	assert.Equal(t, 1500.0, g.CurrentAmount)
	assert.Equal(t, 0.0, g.TargetValue)
	require.NotNil(t, g.LatestEvaluation)
	assert.Equal(t, []string{"a", "b"}, g.LatestEvaluation.Insights)
	assert.Equal(t, []string{"r1"}, g.LatestEvaluation.Recommendations)

	row.LatestStatus = bigquery.NullString{}
	assert.Nil(t, row.ToDomain().LatestEvaluation)
}
