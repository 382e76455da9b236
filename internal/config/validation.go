package config

import "fmt"

func validate(c *Config) error {
	if err := c.Scan.validate(); err != nil {
		return err
	}
	if err := c.Features.validate(); err != nil {
		return err
	}
	if err := c.Decide.validate(); err != nil {
		return err
	}
	if err := c.Paper.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (s *ScanConfig) validate() error {
	if s.OffsetSeconds < 0 {
		return fmt.Errorf("scan.offset_seconds must be >= 0")
	}
	if s.VolHistorySize < 2 {
		return fmt.Errorf("scan.vol_history_size must be >= 2")
	}
	return nil
}

func (f *FeatureConfig) validate() error {
	if f.MAFast >= f.MASlow {
		return fmt.Errorf("features.ma_fast (%d) must be shorter than features.ma_slow (%d)", f.MAFast, f.MASlow)
	}
	if f.MASlow >= f.MATrend {
		return fmt.Errorf("features.ma_slow (%d) must be shorter than features.ma_trend (%d)", f.MASlow, f.MATrend)
	}
	return nil
}

func (d *DecideConfig) validate() error {
	if d.MinFormingScore < 0 || d.MinFormingScore > 100 {
		return fmt.Errorf("decide.min_forming_score must be within [0, 100]")
	}
	if d.HighThreshold < d.MinFormingScore {
		return fmt.Errorf("decide.high_threshold must be >= decide.min_forming_score")
	}
	return nil
}

func (p *PaperConfig) validate() error {
	if !p.Enabled {
		return nil
	}
	if p.RiskFraction <= 0 || p.RiskFraction > 0.1 {
		return fmt.Errorf("paper.risk_fraction must be within (0, 0.1]")
	}
	if p.RewardMultiple < 1 {
		return fmt.Errorf("paper.reward_multiple must be >= 1")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if !n.Telegram.Enabled {
		return nil
	}
	if n.Telegram.BotToken == "" {
		return fmt.Errorf("notify.telegram.bot_token required when telegram enabled (or set YAGATI_TELEGRAM_BOT_TOKEN)")
	}
	if n.Telegram.ChatID == "" {
		return fmt.Errorf("notify.telegram.chat_id required when telegram enabled")
	}
	return nil
}
