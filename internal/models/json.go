package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// JSON 类型定义，用于存储多语言内容
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := toBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray 字符串数组类型，用于存储tags、images等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := toBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// CombinationStockMap 组合库存映射（组合键 -> 库存数量）
//
// 组合键由该组合包含的规格选项 ID 升序排列后用下划线拼接，如 "5_9"。
// 历史数据中库存可能以字符串形式存储（如 {"5_9": "10"}），读取时统一转为整数。
type CombinationStockMap map[string]int

// Value 实现 driver.Valuer 接口
func (m CombinationStockMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner 接口
func (m *CombinationStockMap) Scan(value interface{}) error {
	if value == nil {
		*m = CombinationStockMap{}
		return nil
	}
	bytes, ok := toBytes(value)
	if !ok {
		return nil
	}
	if len(bytes) == 0 {
		*m = CombinationStockMap{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return err
	}
	parsed, err := parseCombinationStocks(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// UnmarshalJSON 兼容数值与字符串两种库存写法
func (m *CombinationStockMap) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*m = CombinationStockMap{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := parseCombinationStocks(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func parseCombinationStocks(raw map[string]json.RawMessage) (CombinationStockMap, error) {
	out := make(CombinationStockMap, len(raw))
	for key, rv := range raw {
		n, err := parseStockValue(rv)
		if err != nil {
			return nil, fmt.Errorf("combination stock %q: %w", key, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("combination stock %q: negative count %d", key, n)
		}
		out[NormalizeCombinationKey(key)] = n
	}
	return out, nil
}

func parseStockValue(rv json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(rv, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(rv, &s); err != nil {
		return 0, fmt.Errorf("unsupported stock value %s", string(rv))
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("non-numeric stock value %q", s)
	}
	return n, nil
}

// NormalizeCombinationKey 将组合键中的选项 ID 排序去重后重新拼接
//
// 写入方可能以任意顺序拼接选项 ID；查询按规范形式进行，否则同一组合
// 会因键形式不同而查不到库存。非法片段原样保留，由上层校验拒绝。
func NormalizeCombinationKey(key string) string {
	parts := strings.Split(strings.TrimSpace(key), "_")
	ids := make([]int, 0, len(parts))
	seen := make(map[int]bool, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return strings.TrimSpace(key)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = strconv.Itoa(id)
	}
	return strings.Join(ss, "_")
}

// CombinationKeyFromOptionIDs 由选项 ID 列表生成规范组合键
func CombinationKeyFromOptionIDs(optionIDs []uint) string {
	ids := make([]int, 0, len(optionIDs))
	seen := make(map[uint]bool, len(optionIDs))
	for _, id := range optionIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = strconv.Itoa(id)
	}
	return strings.Join(ss, "_")
}

// OptionIDsFromCombinationKey 解析组合键为选项 ID 列表
func OptionIDsFromCombinationKey(key string) ([]uint, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "_")
	ids := make([]uint, 0, len(parts))
	seen := make(map[uint]bool, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid combination key %q", key)
		}
		if seen[uint(id)] {
			continue
		}
		seen[uint(id)] = true
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ShippingCost 单个地区的配送设置
type ShippingCost struct {
	Available bool  `json:"available"`
	Cost      Money `json:"cost"`
}

// ShippingCostMap 配送费映射（省份编号 -> 配送设置）
//
// 历史数据存在两种形态：{"1": 50} 与 {"1": {"available": true, "cost": 50}}，
// 裸数值视为可配送且数值即运费。
type ShippingCostMap map[string]ShippingCost

// Value 实现 driver.Valuer 接口
func (m ShippingCostMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner 接口
func (m *ShippingCostMap) Scan(value interface{}) error {
	if value == nil {
		*m = ShippingCostMap{}
		return nil
	}
	bytes, ok := toBytes(value)
	if !ok {
		return nil
	}
	if len(bytes) == 0 {
		*m = ShippingCostMap{}
		return nil
	}
	return m.UnmarshalJSON(bytes)
}

// UnmarshalJSON 兼容裸数值与对象两种写法
func (m *ShippingCostMap) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*m = ShippingCostMap{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(ShippingCostMap, len(raw))
	for key, rv := range raw {
		var entry ShippingCost
		if err := json.Unmarshal(rv, &entry); err == nil && len(rv) > 0 && rv[0] == '{' {
			out[key] = entry
			continue
		}
		var cost Money
		if err := json.Unmarshal(rv, &cost); err != nil {
			return fmt.Errorf("shipping cost %q: unsupported value %s", key, string(rv))
		}
		out[key] = ShippingCost{Available: true, Cost: cost}
	}
	*m = out
	return nil
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
