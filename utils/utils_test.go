package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", "owner@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = ValidateJWT("other-secret", token)
	assert.Error(t, err)

	_, err = GenerateJWT("", "owner@example.com", time.Hour)
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", "owner@example.com", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = ValidateJWT("secret", token)
	assert.Error(t, err)
}

func TestCheckPassword(t *testing.T) {
	assert.True(t, CheckPassword("hunter2", "hunter2"))
	assert.False(t, CheckPassword("hunter2", "hunter3"))
	assert.False(t, CheckPassword("", ""))

	hashed, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hashed, "hunter2"))
	assert.False(t, CheckPassword(hashed, hashed))
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

func TestValidation(t *testing.T) {
	id, ok := ParsePropertyID("65a1f0c2e4b0a1b2c3d4e5f6")
	assert.True(t, ok)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", id.Hex())

	_, ok = ParsePropertyID("PROP1001")
	assert.False(t, ok)

	email, ok := NormalizeEmail("  Buyer@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "buyer@example.com", email)

	_, ok = NormalizeEmail("Buyer <buyer@example.com>")
	assert.False(t, ok)
	_, ok = NormalizeEmail("")
	assert.False(t, ok)

	assert.Equal(t, []string{"family", "retirees"}, SplitList(" family, ,retirees,"))
	assert.Equal(t, []string{}, SplitList(""))

	assert.Equal(t, 3, ParsePage("3"))
	assert.Equal(t, 1, ParsePage("-2"))
	assert.Equal(t, 1, ParsePage("abc"))

	assert.Equal(t, 20, ParseLimit("", 20, 100))
	assert.Equal(t, 100, ParseLimit("500", 20, 100))
	assert.Equal(t, 5, ParseLimit("5", 20, 100))

	city, state := SplitLocation("Rishikesh, Uttarakhand")
	assert.Equal(t, "Rishikesh", city)
	assert.Equal(t, "Uttarakhand", state)
	city, state = SplitLocation("Tapovan")
	assert.Equal(t, "Tapovan", city)
	assert.Equal(t, "", state)
}

func TestGenerateQueryCacheKeyIsOrderIndependent(t *testing.T) {
	a := GenerateQueryCacheKey("props", map[string]string{"city": "dehradun", "page": "2"})
	b := GenerateQueryCacheKey("props", map[string]string{"page": "2", "city": "dehradun"})
	c := GenerateQueryCacheKey("props", map[string]string{"page": "3", "city": "dehradun"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "props:")
}

func TestCacheInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(NewRedisClient(mr.Addr(), "", 0), time.Minute)
	ctx := context.Background()
	params := map[string]string{"page": "1"}

	key, err := cache.Key(ctx, "properties", params)
	require.NoError(t, err)
	require.NoError(t, cache.SetCached(ctx, key, []string{"a", "b"}))

	var got []string
	hit, err := cache.GetCached(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, cache.Invalidate(ctx, "properties"))
	fresh, err := cache.Key(ctx, "properties", params)
	require.NoError(t, err)
	assert.NotEqual(t, key, fresh)

	hit, err = cache.GetCached(ctx, fresh, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
