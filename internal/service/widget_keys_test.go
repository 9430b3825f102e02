package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWidgetKeys(t *testing.T) {
	reg, err := ParseWidgetKeys("rdk_aaa:biz-1:widget-1, rdk_bbb:biz-2:widget-2")
	require.NoError(t, err)
	assert.False(t, reg.Empty())

	widgetID, businessID, err := reg.ValidateWidgetKey(context.Background(), "rdk_aaa")
	require.NoError(t, err)
	assert.Equal(t, "widget-1", widgetID)
	assert.Equal(t, "biz-1", businessID)

	widgetID, businessID, err = reg.ValidateWidgetKey(context.Background(), "rdk_bbb")
	require.NoError(t, err)
	assert.Equal(t, "widget-2", widgetID)
	assert.Equal(t, "biz-2", businessID)
}

func TestParseWidgetKeys_Empty(t *testing.T) {
	reg, err := ParseWidgetKeys("  ")
	require.NoError(t, err)
	assert.True(t, reg.Empty())
}

func TestParseWidgetKeys_Malformed(t *testing.T) {
	_, err := ParseWidgetKeys("rdk_aaa:biz-1")
	assert.Error(t, err)

	_, err = ParseWidgetKeys("rdk_aaa::widget-1")
	assert.Error(t, err)
}

func TestWidgetKeyRegistry_UnknownKey(t *testing.T) {
	reg, err := ParseWidgetKeys("rdk_aaa:biz-1:widget-1")
	require.NoError(t, err)

	_, _, err = reg.ValidateWidgetKey(context.Background(), "rdk_zzz")
	assert.Error(t, err)
}
